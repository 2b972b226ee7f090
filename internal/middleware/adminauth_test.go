package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SergeiKhy/ip-profiler/internal/auth"
	"github.com/SergeiKhy/ip-profiler/internal/middleware"
)

var testSecret = []byte("test-secret")

// setupRouter создаёт тестовый роутер с защищённым эндпоинтом
func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	adminAuth := middleware.NewAdminAuth(middleware.AdminAuthConfig{JWTSecret: testSecret})

	r := gin.New()
	r.GET("/protected", adminAuth.Middleware(), func(c *gin.Context) {
		username, _ := middleware.GetAdminFromContext(c)
		c.JSON(http.StatusOK, gin.H{"username": username})
	})
	return r
}

// TestAdminAuth_MissingToken проверяет отказ без токена
func TestAdminAuth_MissingToken(t *testing.T) {
	r := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "missing_token")
}

// TestAdminAuth_InvalidToken проверяет отказ при мусорном токене
func TestAdminAuth_InvalidToken(t *testing.T) {
	r := setupRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_token")
}

// TestAdminAuth_WrongSecret проверяет отказ при токене с чужой подписью
func TestAdminAuth_WrongSecret(t *testing.T) {
	r := setupRouter()

	token, err := auth.GenerateToken("operator", []byte("other-secret"), time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAdminAuth_ExpiredToken проверяет отказ при просроченном токене
func TestAdminAuth_ExpiredToken(t *testing.T) {
	r := setupRouter()

	token, err := auth.GenerateToken("operator", testSecret, -time.Minute)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAdminAuth_ValidToken проверяет успешный проход с валидным токеном
func TestAdminAuth_ValidToken(t *testing.T) {
	r := setupRouter()

	token, err := auth.GenerateToken("operator", testSecret, time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "operator")
}
