package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/config"
	"github.com/SergeiKhy/ip-profiler/internal/geoip"
	"github.com/SergeiKhy/ip-profiler/internal/handler"
	"github.com/SergeiKhy/ip-profiler/internal/mailer"
	"github.com/SergeiKhy/ip-profiler/internal/middleware"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
	"github.com/SergeiKhy/ip-profiler/internal/service"
	"go.uber.org/zap"
)

func main() {
	// Загрузка конфига
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Подключение к БД (postgres)
	db, err := repository.NewPostgresDB(cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Миграции схемы
	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Подключение к Redis
	redis, err := repository.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redis.Close()
	logger.Info("Connected to Redis")

	// Инициализация репозиториев
	linkRepo := repository.NewLinkRepository(db)
	cacheRepo := repository.NewCacheRepository(redis)
	visitRepo := repository.NewVisitRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Почтовый транспорт: симуляция пишет письма в лог
	var mailTransport mailer.Mailer
	if cfg.Mail.Simulate {
		mailTransport = mailer.NewLogMailer(logger)
		logger.Info("Mail delivery simulated: messages go to the log")
	} else {
		mailTransport = mailer.NewSendGridMailer(cfg.Mail.SendGridKey, cfg.Mail.FromEmail)
	}

	// Диспетчер уведомлений (Worker Pool)
	dispatcher := service.NewNotificationDispatcher(mailTransport, cfg.Mail.OperatorEmail, logger)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Инициализация сервисов
	linkService := service.NewLinkService(linkRepo, cacheRepo, cfg.App.BaseURL, logger)
	visitService := service.NewVisitService(visitRepo, linkService, dispatcher, logger)
	queryService := service.NewQueryService(visitRepo)
	adminService := service.NewAdminService(adminRepo, logger)

	// Начальный администратор из окружения
	if err := adminService.SeedInitialAdmin(context.Background(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		logger.Error("Failed to seed initial admin", zap.Error(err))
	}

	adminAuth := middleware.NewAdminAuth(middleware.AdminAuthConfig{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
	})

	// Настройка роутера
	router := handler.NewRouter(
		linkService,
		visitService,
		queryService,
		adminService,
		geoip.NewClient(),
		adminAuth,
		[]byte(cfg.Auth.JWTSecret),
		logger,
	)

	// Запуск сервера
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск в горутине
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
