package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/mailer"
	"github.com/SergeiKhy/ip-profiler/internal/models"
	"go.uber.org/zap"
)

// Виды событий, порождающих уведомление
const (
	EventVisitCreated     = "visit_created"
	EventIdentityCaptured = "identity_captured"
)

// Константы worker pool
const (
	defaultWorkerCount   = 3    // Количество воркеров
	defaultChannelBuffer = 1000 // Размер буфера канала
	sendTimeout          = 10 * time.Second
)

// NotifyEvent несёт сохранённую запись визита и вид события
type NotifyEvent struct {
	Visit *models.VisitorLog
	Kind  string
}

// NotificationDispatcher применяет политику уведомлений и асинхронно
// отдаёт письма транспорту. Сбой доставки никогда не виден вызывающему.
type NotificationDispatcher interface {
	Start()
	Stop()
	Enqueue(ctx context.Context, event *NotifyEvent) error
}

type notificationDispatcher struct {
	mailer        mailer.Mailer
	operatorEmail string
	logger        *zap.Logger
	eventChannel  chan *NotifyEvent
	workerCount   int
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewNotificationDispatcher создаёт новый диспетчер уведомлений.
// operatorEmail получает отчёты о прямых визитах без ссылки;
// пустое значение глушит и эту ветку.
func NewNotificationDispatcher(m mailer.Mailer, operatorEmail string, logger *zap.Logger) NotificationDispatcher {
	return &notificationDispatcher{
		mailer:        m,
		operatorEmail: operatorEmail,
		logger:        logger,
		eventChannel:  make(chan *NotifyEvent, defaultChannelBuffer),
		workerCount:   defaultWorkerCount,
	}
}

// Start запускает worker pool
func (d *notificationDispatcher) Start() {
	d.ctx, d.cancel = context.WithCancel(context.Background())

	d.logger.Info("Запуск воркеров диспетчера уведомлений", zap.Int("count", d.workerCount))

	for i := 0; i < d.workerCount; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Stop корректно останавливает worker pool
func (d *notificationDispatcher) Stop() {
	d.logger.Info("Остановка диспетчера уведомлений...")
	d.cancel()
	d.wg.Wait()
	d.logger.Info("Диспетчер уведомлений остановлен")
}

// worker обрабатывает события из канала
func (d *notificationDispatcher) worker(id int) {
	defer d.wg.Done()

	d.logger.Debug("Воркер уведомлений запущен", zap.Int("id", id))

	for {
		select {
		case <-d.ctx.Done():
			d.logger.Debug("Воркер уведомлений остановлен", zap.Int("id", id))
			return

		case event, ok := <-d.eventChannel:
			if !ok {
				return
			}
			d.processEvent(event)
		}
	}
}

// Enqueue отправляет событие в worker pool (неблокирующая операция)
func (d *notificationDispatcher) Enqueue(ctx context.Context, event *NotifyEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.eventChannel <- event:
		return nil
	default:
		// Канал заполнен: уведомление теряем, запрос не блокируем
		d.logger.Warn("Буфер канала уведомлений заполнен, событие потеряно",
			zap.String("visit_id", event.Visit.ID),
		)
		return nil
	}
}

// processEvent применяет политику и отправляет письмо.
//
// Ядро политики: владелец ссылки узнаёт о клике только после того, как
// посетитель раскрыл контакт. Событие create с непустым link_id никогда
// не уведомляет: это размытое окно между кликом и раскрытием.
func (d *notificationDispatcher) processEvent(event *NotifyEvent) {
	visit := event.Visit

	shouldNotify := event.Kind == EventIdentityCaptured || visit.LinkID == nil
	if !shouldNotify {
		d.logger.Debug("Уведомление подавлено политикой",
			zap.String("visit_id", visit.ID),
			zap.String("kind", event.Kind),
		)
		return
	}

	recipient := d.recipient(visit)
	if recipient == "" {
		d.logger.Debug("Нет адресата для уведомления",
			zap.String("visit_id", visit.ID),
			zap.String("kind", event.Kind),
		)
		return
	}

	subject, body := d.compose(event)

	ctx, cancel := context.WithTimeout(d.ctx, sendTimeout)
	defer cancel()

	if err := d.mailer.Send(ctx, recipient, subject, body); err != nil {
		// Сбой доставки только логируется, без retry
		d.logger.Error("Не удалось отправить уведомление",
			zap.String("visit_id", visit.ID),
			zap.String("to", recipient),
			zap.Error(err),
		)
		return
	}

	d.logger.Info("Уведомление отправлено",
		zap.String("visit_id", visit.ID),
		zap.String("kind", event.Kind),
	)
}

// recipient выбирает адресата: владелец ссылки для атрибутированных визитов,
// оператор для прямых. Анонимный sentinel-владелец и нерезолвленная ссылка
// глушат отправку.
func (d *notificationDispatcher) recipient(visit *models.VisitorLog) string {
	if visit.LinkID == nil {
		return d.operatorEmail
	}
	if visit.Link == nil || visit.Link.OwnerEmail == AnonymousOwner {
		return ""
	}
	return visit.Link.OwnerEmail
}

func (d *notificationDispatcher) compose(event *NotifyEvent) (subject, body string) {
	visit := event.Visit

	if event.Kind == EventIdentityCaptured {
		email := ""
		if visit.VisitorEmail != nil {
			email = *visit.VisitorEmail
		}
		phone := "not provided"
		if visit.VisitorPhone != nil {
			phone = *visit.VisitorPhone
		}
		subject = fmt.Sprintf("Lead unlocked: %s", email)
		body = fmt.Sprintf(
			"<h2>Identity captured</h2>"+
				"<p>A visitor on your link has disclosed their contact details.</p>"+
				"<ul>"+
				"<li><b>Email:</b> %s</li>"+
				"<li><b>Phone:</b> %s</li>"+
				"<li><b>IP:</b> %s (%s)</li>"+
				"<li><b>Location:</b> %s, %s, %s</li>"+
				"<li><b>Device:</b> %s / %s</li>"+
				"<li><b>Channel:</b> %s</li>"+
				"</ul>",
			email, phone,
			visit.IP, visit.ISP,
			visit.City, visit.Region, visit.Country,
			visit.Browser, visit.OS,
			visit.Platform,
		)
		return subject, body
	}

	// Отчёт о прямом визите: личность не захвачена и не заявляется
	subject = fmt.Sprintf("Direct visit from %s", visit.IP)
	body = fmt.Sprintf(
		"<h2>Visit report</h2>"+
			"<p>A direct (unattributed) visit was recorded.</p>"+
			"<ul>"+
			"<li><b>IP:</b> %s (%s)</li>"+
			"<li><b>Location:</b> %s, %s, %s</li>"+
			"<li><b>Device:</b> %s / %s</li>"+
			"<li><b>Channel:</b> %s</li>"+
			"</ul>",
		visit.IP, visit.ISP,
		visit.City, visit.Region, visit.Country,
		visit.Browser, visit.OS,
		visit.Platform,
	)
	return subject, body
}
