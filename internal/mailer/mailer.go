// Package mailer abstracts the outbound mail transport so that the
// notification policy never depends on a concrete provider.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Mailer отправляет одно письмо. Возвращённая ошибка служит сигналом для лога,
// а не для отката: записи визитов к этому моменту уже сохранены.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SendGridMailer доставляет письма через SendGrid API
type SendGridMailer struct {
	client    *sendgrid.Client
	fromEmail string
}

func NewSendGridMailer(apiKey, fromEmail string) *SendGridMailer {
	return &SendGridMailer{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	from := mail.NewEmail("IP Profiler", m.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlBody)

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected message: status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}

// LogMailer пишет письмо в операционный лог вместо отправки.
// Используется в режиме симуляции и когда транспорт не сконфигурирован.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.logger.Info("Simulated mail delivery",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", htmlBody),
	)
	return nil
}
