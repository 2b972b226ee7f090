package handler

import (
	"net/http"

	"github.com/SergeiKhy/ip-profiler/internal/geoip"
	"github.com/SergeiKhy/ip-profiler/internal/middleware"
	"github.com/SergeiKhy/ip-profiler/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	visitService service.VisitService,
	queryService service.QueryService,
	adminService service.AdminService,
	geoClient *geoip.Client,
	adminAuth *middleware.AdminAuth,
	jwtSecret []byte,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.Default()

	// Middleware для логгирования
	if logger != nil {
		router.Use(func(c *gin.Context) {
			logger.Info("Request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.Next()
		})
	}

	linkHandler := NewLinkHandler(linkService, logger)
	visitHandler := NewVisitHandler(visitService, logger)
	adminHandler := NewAdminHandler(adminService, queryService, jwtSecret, logger)
	geoHandler := NewGeoHandler(geoClient, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)
		v1.GET("/geo", geoHandler.Probe)

		v1.POST("/links", linkHandler.IssueLink)
		v1.POST("/visits", visitHandler.IngestVisit)

		admin := v1.Group("/admin")
		{
			admin.POST("/login", adminHandler.Login)

			protected := admin.Group("")
			protected.Use(adminAuth.Middleware())
			protected.GET("/visits", adminHandler.ListVisits)
			protected.POST("/users", adminHandler.CreateAdmin)
		}
	}

	return router
}

// HealthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
