package mocks

import (
	"context"
	"sync"
)

// SentMail captures a single delivery attempt
type SentMail struct {
	To      string
	Subject string
	Body    string
}

// MockMailer implements mailer.Mailer and records every send
type MockMailer struct {
	mu   sync.RWMutex
	sent []SentMail
	err  error // returned by Send when set
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}

// FailWith makes every subsequent Send return err
func (m *MockMailer) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MockMailer) Sent() []SentMail {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

func (m *MockMailer) SentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sent)
}

func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
	m.err = nil
}
