package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	natspkg "github.com/nats-io/nats.go"

	"github.com/infoevent/notification-service/internal/domain"
	"github.com/infoevent/notification-service/internal/pkg/logger"
	"github.com/infoevent/notification-service/internal/port"
	"github.com/infoevent/notification-service/internal/transport/payload"
)

const (
	SubjectRegister     = "notifications.register"
	SubjectConfirmation = "notifications.confirmation"
)

type Client struct {
	nc *natspkg.Conn
}

func NewClient(url, name string) (*Client, error) {
	nc, err := natspkg.Connect(url,
		natspkg.Name(name),
		natspkg.MaxReconnects(-1),
		natspkg.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{nc: nc}, nil
}

// Close drains subscriptions so in-flight dispatches can finish.
func (c *Client) Close() {
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
	}
}

func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.Status() == natspkg.CONNECTED
}

func (c *Client) QueueSubscribe(subject, queue string, handler natspkg.MsgHandler) (*natspkg.Subscription, error) {
	return c.nc.QueueSubscribe(subject, queue, handler)
}

// Consumer feeds notification requests published on NATS into the
// dispatcher. Requests carrying a reply subject get the Result back.
type Consumer struct {
	svc     port.NotificationDispatcher
	timeout time.Duration
}

func NewConsumer(svc port.NotificationDispatcher, timeout time.Duration) *Consumer {
	return &Consumer{svc: svc, timeout: timeout}
}

// Subscribe attaches the consumer to both subjects within the queue group.
func (c *Consumer) Subscribe(client *Client, queue string) error {
	subjects := map[string]domain.Kind{
		SubjectRegister:     domain.KindWelcome,
		SubjectConfirmation: domain.KindConfirmation,
	}
	for subject, kind := range subjects {
		if _, err := client.QueueSubscribe(subject, queue, c.handler(kind)); err != nil {
			return fmt.Errorf("subscribe %s: %w", subject, err)
		}
	}
	return nil
}

func (c *Consumer) handler(kind domain.Kind) natspkg.MsgHandler {
	return func(msg *natspkg.Msg) {
		reply := c.Handle(context.Background(), kind, msg.Data)
		if msg.Reply == "" {
			return
		}
		if err := msg.Respond(reply); err != nil {
			logger.From(context.Background()).Warn("nats reply failed", "subject", msg.Subject, "error", err)
		}
	}
}

// Handle decodes one message, dispatches it and returns the JSON reply.
func (c *Consumer) Handle(ctx context.Context, kind domain.Kind, data []byte) []byte {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var result payload.Result
	var body payload.Notification
	if err := json.Unmarshal(data, &body); err != nil {
		logger.From(ctx).Warn("nats message rejected", "kind", kind, "error", err)
		result = payload.Result{Status: port.StatusValidationFailed, Message: "Malformed JSON payload"}
	} else {
		result = payload.NewResult(c.svc.Dispatch(ctx, kind, body.ToDomain()))
	}

	out, err := json.Marshal(result)
	if err != nil {
		return []byte(`{"status":"delivery_failed"}`)
	}
	return out
}
