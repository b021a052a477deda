package memory

import (
	"context"
	"sync"

	"github.com/infoevent/notification-service/internal/pkg/logger"
	"github.com/infoevent/notification-service/internal/port"
)

// Message is one message accepted by the outbox.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *port.Attachment
}

// Outbox is a Mailer that keeps messages in memory and logs them instead of
// talking to a relay. Used with MAIL_DRIVER=log.
type Outbox struct {
	mu       sync.RWMutex
	messages []Message
	limit    int
}

// NewOutbox keeps at most limit messages, dropping the oldest; zero means
// unbounded.
func NewOutbox(limit int) *Outbox {
	return &Outbox{limit: limit}
}

var _ port.Mailer = (*Outbox)(nil)

func (o *Outbox) SendMessage(ctx context.Context, to, subject, body string) error {
	o.append(ctx, Message{To: to, Subject: subject, Body: body})
	return nil
}

func (o *Outbox) SendMessageWithAttachment(ctx context.Context, to, subject, body string, attachment port.Attachment) error {
	attachment.Content = append([]byte(nil), attachment.Content...)
	o.append(ctx, Message{To: to, Subject: subject, Body: body, Attachment: &attachment})
	return nil
}

func (o *Outbox) Messages() []Message {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return append([]Message(nil), o.messages...)
}

func (o *Outbox) append(ctx context.Context, m Message) {
	o.mu.Lock()
	o.messages = append(o.messages, m)
	if o.limit > 0 && len(o.messages) > o.limit {
		o.messages = o.messages[len(o.messages)-o.limit:]
	}
	o.mu.Unlock()

	attrs := []any{"to", m.To, "subject", m.Subject}
	if m.Attachment != nil {
		attrs = append(attrs, "attachment", m.Attachment.Name, "attachment_bytes", len(m.Attachment.Content))
	}
	logger.From(ctx).Info("message stored in outbox", attrs...)
}
