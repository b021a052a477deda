package smtp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/google/uuid"

	"github.com/infoevent/notification-service/internal/port"
)

type envelope struct {
	To         string
	Subject    string
	Body       string
	Attachment *port.Attachment
}

// compose renders the RFC 5322 message. A message without attachment is
// plain text; with one it is multipart/mixed whose first part is the body
// as HTML.
func (c *Client) compose(e envelope) ([]byte, error) {
	var (
		content     bytes.Buffer
		contentType string
		encoding    string
	)

	if e.Attachment == nil {
		contentType = "text/plain; charset=UTF-8"
		encoding = "quoted-printable"
		if err := writeQuotedPrintable(&content, e.Body); err != nil {
			return nil, err
		}
	} else {
		mw := multipart.NewWriter(&content)
		contentType = mime.FormatMediaType("multipart/mixed", map[string]string{"boundary": mw.Boundary()})
		if err := writeHTMLPart(mw, e.Body); err != nil {
			return nil, err
		}
		if err := writeAttachmentPart(mw, *e.Attachment); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("smtp: close multipart: %w", err)
		}
	}

	from := (&mail.Address{Name: c.FromName, Address: c.From}).String()
	to := (&mail.Address{Address: e.To}).String()

	var msg bytes.Buffer
	writeHeader(&msg, "From", from)
	writeHeader(&msg, "To", to)
	writeHeader(&msg, "Subject", mime.QEncoding.Encode("utf-8", e.Subject))
	writeHeader(&msg, "Date", c.clock().Format("Mon, 02 Jan 2006 15:04:05 -0700"))
	writeHeader(&msg, "Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), c.messageIDDomain()))
	writeHeader(&msg, "MIME-Version", "1.0")
	writeHeader(&msg, "Content-Type", contentType)
	if encoding != "" {
		writeHeader(&msg, "Content-Transfer-Encoding", encoding)
	}
	msg.WriteString("\r\n")
	msg.Write(content.Bytes())
	return msg.Bytes(), nil
}

func (c *Client) messageIDDomain() string {
	if at := strings.LastIndex(c.From, "@"); at >= 0 && at < len(c.From)-1 {
		return c.From[at+1:]
	}
	if c.Host != "" {
		return c.Host
	}
	return "localhost"
}

func writeHeader(b *bytes.Buffer, key, value string) {
	b.WriteString(key)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

func writeQuotedPrintable(w *bytes.Buffer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return fmt.Errorf("smtp: encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("smtp: encode body: %w", err)
	}
	return nil
}

// HTMLBody escapes text and turns its newlines into line breaks.
func HTMLBody(text string) string {
	escaped := html.EscapeString(text)
	return "<html><body>" + strings.ReplaceAll(escaped, "\n", "<br>\n") + "</body></html>"
}

func writeHTMLPart(mw *multipart.Writer, body string) error {
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", "text/html; charset=UTF-8")
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	pw, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("smtp: create body part: %w", err)
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(HTMLBody(body))); err != nil {
		return fmt.Errorf("smtp: encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return fmt.Errorf("smtp: encode body: %w", err)
	}
	return nil
}

func writeAttachmentPart(mw *multipart.Writer, a port.Attachment) error {
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Type", mime.FormatMediaType(contentType, map[string]string{"name": a.Name}))
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
	h.Set("Content-Transfer-Encoding", "base64")
	pw, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("smtp: create attachment part: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(a.Content)
	const lineLen = 76
	for len(encoded) > 0 {
		n := min(lineLen, len(encoded))
		if _, err := fmt.Fprintf(pw, "%s\r\n", encoded[:n]); err != nil {
			return fmt.Errorf("smtp: write attachment: %w", err)
		}
		encoded = encoded[n:]
	}
	return nil
}
