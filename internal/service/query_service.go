package service

import (
	"context"
	"strings"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
)

// QueryService даёт оператору read-only доступ к записям визитов.
// Авторизация выполняется снаружи (middleware); сервис её не проверяет.
type QueryService interface {
	List(ctx context.Context) ([]*models.VisitorLog, error)
	Search(ctx context.Context, term string) ([]*models.VisitorLog, error)
}

type queryService struct {
	visitRepo repository.VisitRepository
}

// NewQueryService создаёт новый экземпляр сервиса
func NewQueryService(visitRepo repository.VisitRepository) QueryService {
	return &queryService{visitRepo: visitRepo}
}

// List возвращает все записи визитов по убыванию created_at,
// вместе с резолвнутой ассоциацией со ссылкой
func (s *queryService) List(ctx context.Context) ([]*models.VisitorLog, error) {
	return s.visitRepo.List(ctx)
}

// Search ищет подстроку без учёта регистра по ip, city, country,
// visitor_email и visitor_phone (OR-семантика). Пустой запрос работает как List.
func (s *queryService) Search(ctx context.Context, term string) ([]*models.VisitorLog, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.visitRepo.List(ctx)
	}
	return s.visitRepo.Search(ctx, term)
}
