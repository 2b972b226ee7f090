package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Ошибки сервиса
var (
	ErrInvalidCredentials = errors.New("неверные учётные данные")
	ErrMissingAdminFields = errors.New("username и password обязательны")
)

// AdminService управляет учётками операторов. Пароли хранятся только
// в виде bcrypt-хэшей.
type AdminService interface {
	Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error)
	CreateAdmin(ctx context.Context, username, password string) (*models.AdminUser, error)
	SeedInitialAdmin(ctx context.Context, username, password string) error
}

type adminService struct {
	adminRepo repository.AdminRepository
	logger    *zap.Logger
}

// NewAdminService создаёт новый экземпляр сервиса
func NewAdminService(adminRepo repository.AdminRepository, logger *zap.Logger) AdminService {
	return &adminService{
		adminRepo: adminRepo,
		logger:    logger,
	}
}

// Authenticate сверяет пароль с bcrypt-хэшем. Несуществующий пользователь и
// неверный пароль неразличимы для вызывающего.
func (s *adminService) Authenticate(ctx context.Context, username, password string) (*models.AdminUser, error) {
	admin, err := s.adminRepo.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return admin, nil
}

// CreateAdmin создаёт нового оператора
func (s *adminService) CreateAdmin(ctx context.Context, username, password string) (*models.AdminUser, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, ErrMissingAdminFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	admin := &models.AdminUser{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		return nil, err
	}

	return admin, nil
}

// SeedInitialAdmin создаёт начального оператора из окружения.
// Пустые значения пропускаются молча; существующая учётка не трогается.
func (s *adminService) SeedInitialAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		s.logger.Info("ADMIN_USERNAME/ADMIN_PASSWORD не заданы, пропускаем создание администратора")
		return nil
	}

	_, err := s.CreateAdmin(ctx, username, password)
	if errors.Is(err, repository.ErrAdminExists) {
		return nil
	}
	if err != nil {
		return err
	}

	s.logger.Info("Создан начальный администратор", zap.String("username", strings.ToLower(username)))
	return nil
}
