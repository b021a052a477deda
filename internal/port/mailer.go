package port

import "context"

// Attachment is a single binary file carried by an outgoing message.
type Attachment struct {
	Name        string
	ContentType string
	Content     []byte
}

// Mailer is the delivery gateway. Implementations own connection handling,
// MIME encoding and any retry policy; callers only see success or an error.
type Mailer interface {
	// SendMessage delivers a plain-text message.
	SendMessage(ctx context.Context, to, subject, body string) error
	// SendMessageWithAttachment delivers body as rich text with one attachment.
	SendMessageWithAttachment(ctx context.Context, to, subject, body string, attachment Attachment) error
}
