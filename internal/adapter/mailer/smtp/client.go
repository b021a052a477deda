package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/infoevent/notification-service/internal/config"
	"github.com/infoevent/notification-service/internal/port"
)

// Security selects how the connection to the relay is protected.
type Security string

const (
	SecurityStartTLS Security = "starttls"
	SecurityTLS      Security = "tls"
	SecurityNone     Security = "none"
)

type Client struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Security Security
	Timeout  time.Duration

	// TLSConfig overrides the default client TLS settings.
	TLSConfig *tls.Config
	now       func() time.Time
}

func New(cfg *config.Config) *Client {
	return &Client{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
		Security: Security(cfg.SMTPSecurity),
		Timeout:  cfg.SMTPTimeout,
	}
}

var _ port.Mailer = (*Client)(nil)

func (c *Client) SendMessage(ctx context.Context, to, subject, body string) error {
	msg, err := c.compose(envelope{To: to, Subject: subject, Body: body})
	if err != nil {
		return err
	}
	return c.send(ctx, to, msg)
}

func (c *Client) SendMessageWithAttachment(ctx context.Context, to, subject, body string, attachment port.Attachment) error {
	msg, err := c.compose(envelope{To: to, Subject: subject, Body: body, Attachment: &attachment})
	if err != nil {
		return err
	}
	return c.send(ctx, to, msg)
}

func (c *Client) send(ctx context.Context, to string, msg []byte) error {
	if c.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}
	if c.From == "" {
		return fmt.Errorf("smtp from not configured")
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Unblock any pending read or write as soon as ctx is done.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()
	if err := conn.SetDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("smtp: set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, c.Host)
	if err != nil {
		return c.ctxErr(ctx, fmt.Errorf("smtp: greeting: %w", err))
	}
	defer client.Close()

	if c.Security == SecurityStartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fmt.Errorf("smtp: server does not support STARTTLS")
		}
		if err := client.StartTLS(c.tlsConfig()); err != nil {
			return c.ctxErr(ctx, fmt.Errorf("smtp: starttls: %w", err))
		}
	}

	if c.Username != "" || c.Password != "" {
		if _, ok := client.TLSConnectionState(); !ok {
			return fmt.Errorf("smtp: refusing to authenticate without TLS")
		}
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", c.Username, c.Password, c.Host)); err != nil {
				return c.ctxErr(ctx, fmt.Errorf("smtp: auth: %w", err))
			}
		}
	}

	if err := client.Mail(c.From); err != nil {
		return c.ctxErr(ctx, fmt.Errorf("smtp: MAIL FROM: %w", err))
	}
	if err := client.Rcpt(to); err != nil {
		return c.ctxErr(ctx, fmt.Errorf("smtp: RCPT TO: %w", err))
	}
	w, err := client.Data()
	if err != nil {
		return c.ctxErr(ctx, fmt.Errorf("smtp: DATA: %w", err))
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return c.ctxErr(ctx, fmt.Errorf("smtp: write: %w", err))
	}
	if err := w.Close(); err != nil {
		return c.ctxErr(ctx, fmt.Errorf("smtp: close data: %w", err))
	}

	// The message is accepted once DATA is closed; QUIT is best-effort.
	_ = client.Quit()
	return nil
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	dialer := &net.Dialer{Timeout: c.timeout()}

	dctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var (
		conn net.Conn
		err  error
	)
	if c.Security == SecurityTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: c.tlsConfig()}).DialContext(dctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(dctx, "tcp", addr)
	}
	if err != nil {
		return nil, c.ctxErr(ctx, fmt.Errorf("smtp: dial %s: %w", addr, err))
	}
	return conn, nil
}

func (c *Client) tlsConfig() *tls.Config {
	if c.TLSConfig != nil {
		return c.TLSConfig
	}
	return &tls.Config{
		ServerName: c.Host,
		MinVersion: tls.VersionTLS12,
	}
}

// deadline bounds the whole SMTP exchange: the context deadline if it is
// sooner, otherwise a few round trips' worth of the configured timeout.
func (c *Client) deadline(ctx context.Context) time.Time {
	d := c.clock().Add(3 * c.timeout())
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}

func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (%v)", ctxErr, err)
	}
	return err
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}
