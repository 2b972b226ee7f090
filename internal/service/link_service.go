package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrInvalidOwnerEmail = errors.New("невалидный email владельца ссылки")
)

// Константы сервиса
const (
	// AnonymousOwner подставляется, когда ссылка выпускается без контакта.
	// Ссылка продолжает отслеживать визиты, но уведомления по ней не уходят.
	AnonymousOwner = "anonymous@ip-profiler.local"

	linkCacheTTL = 24 * time.Hour
)

// LinkService выпускает атрибуционные ссылки и резолвит их по id
type LinkService interface {
	IssueLink(ctx context.Context, input *models.IssueLinkInput) (*models.IssuedLink, error)
	ResolveLink(ctx context.Context, linkID string) (*models.SharedLink, error)
}

type linkService struct {
	linkRepo  repository.LinkRepository
	cacheRepo repository.CacheRepository
	baseURL   string
	logger    *zap.Logger
}

// NewLinkService создаёт новый экземпляр сервиса
func NewLinkService(linkRepo repository.LinkRepository, cacheRepo repository.CacheRepository, baseURL string, logger *zap.Logger) LinkService {
	return &linkService{
		linkRepo:  linkRepo,
		cacheRepo: cacheRepo,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// IssueLink выпускает новую ссылку, привязанную к контакту владельца.
// Контакт опционален: без него подставляется анонимный sentinel-адрес.
func (s *linkService) IssueLink(ctx context.Context, input *models.IssueLinkInput) (*models.IssuedLink, error) {
	owner := strings.TrimSpace(input.OwnerEmail)
	if owner == "" {
		owner = AnonymousOwner
	} else if !strings.Contains(owner, "@") {
		return nil, ErrInvalidOwnerEmail
	}

	link := &models.SharedLink{
		ID:         uuid.NewString(),
		OwnerEmail: owner,
		CreatedAt:  time.Now(),
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	// Кэширование: ссылка неизменяема, так что кэш не может протухнуть по смыслу
	if err := s.cacheRepo.Set(ctx, link.ID, link, linkCacheTTL); err != nil {
		s.logger.Warn("Failed to cache shared link", zap.String("link_id", link.ID), zap.Error(err))
	}

	return &models.IssuedLink{
		LinkID:    link.ID,
		URL:       fmt.Sprintf("%s/?sid=%s", s.baseURL, link.ID),
		CreatedAt: link.CreatedAt,
	}, nil
}

// ResolveLink получает ссылку по id (сначала из кэша, затем из БД)
func (s *linkService) ResolveLink(ctx context.Context, linkID string) (*models.SharedLink, error) {
	link, err := s.cacheRepo.Get(ctx, linkID)
	if err == nil {
		return link, nil
	}

	link, err = s.linkRepo.GetByID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.Set(ctx, linkID, link, linkCacheTTL); err != nil {
		s.logger.Warn("Failed to cache shared link", zap.String("link_id", linkID), zap.Error(err))
	}

	return link, nil
}
