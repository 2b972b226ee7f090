package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/service"
	"github.com/SergeiKhy/ip-profiler/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedVisits наполняет репозиторий тестовыми записями
func seedVisits(t *testing.T, visitRepo *mocks.MockVisitRepository) {
	ctx := context.Background()
	email := "lead@example.com"

	visits := []*models.VisitorLog{
		{ID: "v1", DeviceToken: "d1", IP: "203.0.113.1", City: "Berlin", Country: "Germany", CreatedAt: time.Now().Add(-2 * time.Hour)},
		{ID: "v2", DeviceToken: "d2", IP: "198.51.100.2", City: "Paris", Country: "France", VisitorEmail: &email, CreatedAt: time.Now().Add(-time.Hour)},
		{ID: "v3", DeviceToken: "d3", IP: "192.0.2.3", City: "Lyon", Country: "France", CreatedAt: time.Now()},
	}
	for _, v := range visits {
		require.NoError(t, visitRepo.Create(ctx, v))
	}
}

// TestQueryService_List проверяет выдачу всех записей, новые первыми
func TestQueryService_List(t *testing.T) {
	visitRepo := mocks.NewMockVisitRepository()
	queryService := service.NewQueryService(visitRepo)
	seedVisits(t, visitRepo)

	visits, err := queryService.List(context.Background())
	require.NoError(t, err)
	require.Len(t, visits, 3)
	assert.Equal(t, "v3", visits[0].ID)
}

// TestQueryService_Search проверяет OR-поиск по подстроке без учёта регистра
func TestQueryService_Search(t *testing.T) {
	visitRepo := mocks.NewMockVisitRepository()
	queryService := service.NewQueryService(visitRepo)
	seedVisits(t, visitRepo)

	ctx := context.Background()

	// По стране
	visits, err := queryService.Search(ctx, "france")
	require.NoError(t, err)
	assert.Len(t, visits, 2)

	// По email посетителя
	visits, err = queryService.Search(ctx, "lead@")
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "v2", visits[0].ID)

	// По фрагменту IP
	visits, err = queryService.Search(ctx, "203.0.113")
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "v1", visits[0].ID)

	// Без совпадений
	visits, err = queryService.Search(ctx, "tokyo")
	require.NoError(t, err)
	assert.Empty(t, visits)
}

// TestQueryService_Search_EmptyTerm проверяет, что пустой запрос работает как List
func TestQueryService_Search_EmptyTerm(t *testing.T) {
	visitRepo := mocks.NewMockVisitRepository()
	queryService := service.NewQueryService(visitRepo)
	seedVisits(t, visitRepo)

	visits, err := queryService.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.Len(t, visits, 3)
}
