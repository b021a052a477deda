// Package porttest provides func-field doubles of the ports for tests.
package porttest

import (
	"context"
	"sync"

	"github.com/infoevent/notification-service/internal/domain"
	"github.com/infoevent/notification-service/internal/port"
)

// MailerCall records one invocation of MailerMock.
type MailerCall struct {
	To         string
	Subject    string
	Body       string
	Attachment *port.Attachment
}

var (
	_ port.Mailer          = (*MailerMock)(nil)
	_ port.TicketGenerator = (*TicketGeneratorMock)(nil)
)

type MailerMock struct {
	SendMessageFunc               func(ctx context.Context, to, subject, body string) error
	SendMessageWithAttachmentFunc func(ctx context.Context, to, subject, body string, attachment port.Attachment) error

	mu    sync.Mutex
	calls []MailerCall
}

func (m *MailerMock) SendMessage(ctx context.Context, to, subject, body string) error {
	m.record(MailerCall{To: to, Subject: subject, Body: body})
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, to, subject, body)
	}
	return nil
}

func (m *MailerMock) SendMessageWithAttachment(ctx context.Context, to, subject, body string, attachment port.Attachment) error {
	m.record(MailerCall{To: to, Subject: subject, Body: body, Attachment: &attachment})
	if m.SendMessageWithAttachmentFunc != nil {
		return m.SendMessageWithAttachmentFunc(ctx, to, subject, body, attachment)
	}
	return nil
}

func (m *MailerMock) Calls() []MailerCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MailerCall(nil), m.calls...)
}

func (m *MailerMock) record(c MailerCall) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
}

type TicketGeneratorMock struct {
	GenerateFunc func(ctx context.Context, req domain.NotificationRequest) ([]byte, error)

	mu    sync.Mutex
	count int
}

func (m *TicketGeneratorMock) Generate(ctx context.Context, req domain.NotificationRequest) ([]byte, error) {
	m.mu.Lock()
	m.count++
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return []byte("%PDF-1.3"), nil
}

func (m *TicketGeneratorMock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}
