// Package mailer holds delivery gateway decorators shared by every mail
// transport.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/infoevent/notification-service/internal/pkg/circuitbreaker"
	"github.com/infoevent/notification-service/internal/pkg/logger"
	"github.com/infoevent/notification-service/internal/port"
)

// ErrCircuitOpen is returned without contacting the transport while the
// breaker is open.
var ErrCircuitOpen = errors.New("mail transport unavailable: circuit open")

var breakerState = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "mail_gateway_circuit_state",
	Help: "Mail gateway breaker state (0 closed, 1 open, 2 half-open).",
})

// Breaker guards a Mailer with a circuit breaker so a failing relay is not
// hammered by every inbound request.
type Breaker struct {
	next    port.Mailer
	breaker *circuitbreaker.Breaker
}

func NewBreaker(next port.Mailer, b *circuitbreaker.Breaker) *Breaker {
	b.OnStateChange(func(from, to circuitbreaker.State) {
		breakerState.Set(float64(to))
		slog.Warn("mail gateway breaker changed state", "from", from.String(), "to", to.String())
	})
	return &Breaker{next: next, breaker: b}
}

var _ port.Mailer = (*Breaker)(nil)

func (m *Breaker) SendMessage(ctx context.Context, to, subject, body string) error {
	return m.do(ctx, func() error {
		return m.next.SendMessage(ctx, to, subject, body)
	})
}

func (m *Breaker) SendMessageWithAttachment(ctx context.Context, to, subject, body string, attachment port.Attachment) error {
	return m.do(ctx, func() error {
		return m.next.SendMessageWithAttachment(ctx, to, subject, body, attachment)
	})
}

func (m *Breaker) do(ctx context.Context, fn func() error) error {
	err := m.breaker.Do(ctx, fn)
	if errors.Is(err, circuitbreaker.ErrOpen) {
		logger.From(ctx).Warn("mail gateway circuit open, message rejected")
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return err
}
