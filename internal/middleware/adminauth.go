package middleware

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/ip-profiler/internal/auth"
	"github.com/gin-gonic/gin"
)

// AdminAuthConfig конфигурация для авторизации операторов
type AdminAuthConfig struct {
	// JWTSecret ключ подписи токенов, выдаваемых при логине
	JWTSecret []byte
	// HeaderName имя заголовка с токеном (по умолчанию: Authorization)
	HeaderName string
}

// AdminAuth middleware для проверки bearer-токена оператора.
// Сама проверка учётных данных происходит один раз при логине;
// здесь валидируется только токен.
type AdminAuth struct {
	config AdminAuthConfig
}

// NewAdminAuth создаёт новый middleware авторизации операторов
func NewAdminAuth(config AdminAuthConfig) *AdminAuth {
	if config.HeaderName == "" {
		config.HeaderName = "Authorization"
	}
	return &AdminAuth{config: config}
}

// Middleware возвращает Gin middleware handler
func (aa *AdminAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		authHeader := c.GetHeader(aa.config.HeaderName)
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "missing_token",
				"message": "Требуется токен оператора. Передайте его через заголовок Authorization: Bearer",
			})
			c.Abort()
			return
		}

		username, err := auth.GetUsernameFromToken(token, aa.config.JWTSecret)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "invalid_token",
				"message": "Невалидный или просроченный токен",
			})
			c.Abort()
			return
		}

		// Устанавливаем значения в контекст для последующих handlers
		c.Set("admin_username", username)

		c.Next()
	}
}

// GetAdminFromContext извлекает имя оператора из контекста
func GetAdminFromContext(c *gin.Context) (string, bool) {
	username, exists := c.Get("admin_username")
	if !exists {
		return "", false
	}
	return username.(string), true
}
