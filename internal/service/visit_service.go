package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ошибки сервиса
var (
	ErrMissingVisitorEmail = errors.New("на пути раскрытия личности visitor_email обязателен")
	ErrUnknownVisitMode    = errors.New("неизвестный режим ингеста")
)

// VisitService реализует основную машину состояний: решает, создаёт ли событие
// новую запись визита или дополняет существующую раскрытым контактом.
// Режим задаётся явным полем запроса, а не выводится из состава полей.
type VisitService interface {
	IngestVisit(ctx context.Context, input *models.VisitCreateInput) (*models.VisitorLog, error)
	UpdateIdentity(ctx context.Context, input *models.IdentityUpdateInput) (*models.VisitorLog, error)
}

type visitService struct {
	visitRepo  repository.VisitRepository
	links      LinkService
	dispatcher NotificationDispatcher
	logger     *zap.Logger
}

// NewVisitService создаёт новый экземпляр сервиса
func NewVisitService(visitRepo repository.VisitRepository, links LinkService, dispatcher NotificationDispatcher, logger *zap.Logger) VisitService {
	return &visitService{
		visitRepo:  visitRepo,
		links:      links,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// IngestVisit сохраняет новую запись визита. Метка канала вычисляется здесь
// один раз и дальше никогда не пересчитывается. Поля личности при создании
// всегда пустые.
func (s *visitService) IngestVisit(ctx context.Context, input *models.VisitCreateInput) (*models.VisitorLog, error) {
	visit := &models.VisitorLog{
		ID:          uuid.NewString(),
		DeviceToken: input.DeviceToken,
		LinkID:      input.LinkID,

		IP:      input.IP,
		ISP:     input.ISP,
		Org:     input.Org,
		ASN:     input.ASN,
		Mobile:  input.Mobile,
		Proxy:   input.Proxy,
		Hosting: input.Hosting,

		City:     input.City,
		Region:   input.Region,
		Country:  input.Country,
		Lat:      input.Lat,
		Lon:      input.Lon,
		Timezone: input.Timezone,

		Browser:        input.Browser,
		OS:             input.OS,
		CPUArch:        input.CPUArch,
		DeviceType:     input.DeviceType,
		ConnectionType: input.ConnectionType,

		Platform:  ClassifyPlatform(input.Referrer),
		CreatedAt: time.Now(),
	}

	if err := s.visitRepo.Create(ctx, visit); err != nil {
		return nil, err
	}

	visit.Link = s.resolveLink(ctx, visit.LinkID)

	// Диспетчер сам подавит create-событие с link_id; здесь политика не дублируется
	if err := s.dispatcher.Enqueue(ctx, &NotifyEvent{Visit: visit, Kind: EventVisitCreated}); err != nil {
		s.logger.Debug("Failed to enqueue visit notification", zap.Error(err))
	}

	return visit, nil
}

// UpdateIdentity дополняет самую свежую запись для пары (device_token, link_id)
// раскрытым контактом. Это единственный путь мутации во всей модели данных.
func (s *visitService) UpdateIdentity(ctx context.Context, input *models.IdentityUpdateInput) (*models.VisitorLog, error) {
	if input.VisitorEmail == "" {
		return nil, ErrMissingVisitorEmail
	}

	// Прямой визит без ссылки не имеет контекста для поиска "той самой" записи
	if input.LinkID == nil || *input.LinkID == "" {
		return nil, repository.ErrVisitNotFound
	}

	visit, err := s.visitRepo.SetIdentity(
		ctx,
		input.DeviceToken,
		*input.LinkID,
		input.VisitorEmail,
		input.VisitorPhone,
		input.PlatformUser,
	)
	if err != nil {
		return nil, err
	}

	visit.Link = s.resolveLink(ctx, visit.LinkID)

	if err := s.dispatcher.Enqueue(ctx, &NotifyEvent{Visit: visit, Kind: EventIdentityCaptured}); err != nil {
		s.logger.Debug("Failed to enqueue identity notification", zap.Error(err))
	}

	return visit, nil
}

// resolveLink подтягивает ассоциацию со ссылкой для ответа и уведомления.
// Висячий link_id допустим: ассоциация просто остаётся пустой.
func (s *visitService) resolveLink(ctx context.Context, linkID *string) *models.SharedLink {
	if linkID == nil || *linkID == "" {
		return nil
	}

	link, err := s.links.ResolveLink(ctx, *linkID)
	if err != nil {
		if !errors.Is(err, repository.ErrLinkNotFound) {
			s.logger.Warn("Failed to resolve shared link", zap.String("link_id", *linkID), zap.Error(err))
		}
		return nil
	}

	return link
}
