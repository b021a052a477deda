package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/infoevent/notification-service/internal/adapter/cache/memory"
	redisstore "github.com/infoevent/notification-service/internal/adapter/cache/redis"
	natsadapter "github.com/infoevent/notification-service/internal/adapter/events/nats"
	"github.com/infoevent/notification-service/internal/adapter/mailer"
	mailmemory "github.com/infoevent/notification-service/internal/adapter/mailer/memory"
	"github.com/infoevent/notification-service/internal/adapter/mailer/smtp"
	"github.com/infoevent/notification-service/internal/config"
	"github.com/infoevent/notification-service/internal/pkg/circuitbreaker"
	"github.com/infoevent/notification-service/internal/pkg/ticket"
	"github.com/infoevent/notification-service/internal/port"
	"github.com/infoevent/notification-service/internal/service"
	httptransport "github.com/infoevent/notification-service/internal/transport/http"
)

const outboxLimit = 1000

type Container struct {
	Config *config.Config

	Mailer      port.Mailer
	Outbox      *mailmemory.Outbox
	Tickets     port.TicketGenerator
	Idempotency port.IdempotencyStore

	SvcNotification *service.NotificationImpl

	Router http.Handler

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	var transport port.Mailer
	switch cfg.MailDriver {
	case config.MailDriverLog:
		c.Outbox = mailmemory.NewOutbox(outboxLimit)
		transport = c.Outbox
	default:
		transport = smtp.New(cfg)
	}
	c.Mailer = mailer.NewBreaker(transport, circuitbreaker.NewBreaker(cfg.BreakerThreshold, cfg.BreakerCooldown, cfg.BreakerHalfOpen))
	c.Tickets = ticket.NewGenerator()
	c.SvcNotification = service.NewNotificationImpl(c.Mailer, c.Tickets)

	if cfg.RedisAddr != "" {
		rdb := redisstore.NewClient(cfg.RedisAddr)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		c.Idempotency = redisstore.NewIdempotencyStore(rdb, cfg.IdempotencyTTL)
	} else {
		c.Idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL)
	}

	checks := map[string]func() bool{}
	if cfg.NATSURL != "" {
		nc, err := natsadapter.NewClient(cfg.NATSURL, cfg.ServiceName)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.closers = append(c.closers, nc.Close)
		checks["nats"] = nc.IsConnected
		consumer := natsadapter.NewConsumer(c.SvcNotification, cfg.DispatchTimeout)
		if err := consumer.Subscribe(nc, cfg.NATSQueue); err != nil {
			c.Close()
			return nil, err
		}
		slog.Info("nats consumer subscribed", "url", cfg.NATSURL, "queue", cfg.NATSQueue)
	}

	c.Router = httptransport.NewRouter(
		httptransport.NewNotificationHandler(c.SvcNotification, c.Idempotency),
		httptransport.RouterOptions{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			MaxBodyBytes:   cfg.MaxBodyBytes,
			ServiceName:    cfg.ServiceName,
			HealthChecks:   checks,
		},
	)

	return c, nil
}

// Close releases connections in reverse order of acquisition.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
