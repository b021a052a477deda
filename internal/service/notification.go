package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/infoevent/notification-service/internal/domain"
	"github.com/infoevent/notification-service/internal/pkg/logger"
	"github.com/infoevent/notification-service/internal/port"
)

const tracerName = "github.com/infoevent/notification-service/internal/service"

// NotificationImpl runs the welcome and confirmation flows. It keeps no
// state between calls and is safe for concurrent use.
type NotificationImpl struct {
	mailer  port.Mailer
	tickets port.TicketGenerator
	tracer  trace.Tracer
	newID   func() string
}

func NewNotificationImpl(mailer port.Mailer, tickets port.TicketGenerator) *NotificationImpl {
	return &NotificationImpl{
		mailer:  mailer,
		tickets: tickets,
		tracer:  otel.Tracer(tracerName),
		newID:   uuid.NewString,
	}
}

var _ port.NotificationDispatcher = (*NotificationImpl)(nil)

// Register sends the welcome message.
func (s *NotificationImpl) Register(ctx context.Context, req domain.NotificationRequest) port.Outcome {
	return s.Dispatch(ctx, domain.KindWelcome, req)
}

// Confirm sends the purchase confirmation with the ticket attached.
func (s *NotificationImpl) Confirm(ctx context.Context, req domain.NotificationRequest) port.Outcome {
	return s.Dispatch(ctx, domain.KindConfirmation, req)
}

func (s *NotificationImpl) Dispatch(ctx context.Context, kind domain.Kind, req domain.NotificationRequest) port.Outcome {
	out := port.Outcome{DispatchID: s.newID(), Kind: kind}

	ctx = logger.WithDispatchID(ctx, out.DispatchID)
	ctx, span := s.tracer.Start(ctx, "notification.dispatch", trace.WithAttributes(
		attribute.String("notification.kind", string(kind)),
		attribute.String("notification.dispatch_id", out.DispatchID),
	))
	defer span.End()

	log := logger.From(ctx).With("kind", string(kind))
	log.Info("dispatching notification", "to", req.Email)

	switch {
	case !kind.Valid():
		out.Status, out.Err = port.StatusValidationFailed, &domain.ValidationError{Field: "kind", Reason: "unsupported"}
	case kind == domain.KindWelcome:
		out.Status, out.Err = s.welcome(ctx, req)
	default:
		out.Status, out.Err = s.confirm(ctx, req)
	}

	dispatchTotal.WithLabelValues(string(kind), string(out.Status)).Inc()
	span.SetAttributes(attribute.String("notification.outcome", string(out.Status)))
	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, string(out.Status))
		log.Error("notification not sent", "to", req.Email, "outcome", out.Status, "error", out.Err)
		return out
	}
	log.Info("notification sent", "to", req.Email)
	return out
}

func (s *NotificationImpl) welcome(ctx context.Context, req domain.NotificationRequest) (port.OutcomeStatus, error) {
	req, err := domain.NewNotificationRequest(req)
	if err != nil {
		return port.StatusValidationFailed, err
	}
	body := WelcomeBody(req)
	if err := s.mailer.SendMessage(ctx, req.Email, WelcomeSubject, body); err != nil {
		return port.StatusDeliveryFailed, &domain.DeliveryError{Err: err}
	}
	return port.StatusSuccess, nil
}

func (s *NotificationImpl) confirm(ctx context.Context, req domain.NotificationRequest) (port.OutcomeStatus, error) {
	req, err := domain.NewNotificationRequest(req)
	if err != nil {
		return port.StatusValidationFailed, err
	}
	body := ConfirmationBody(req)

	start := time.Now()
	doc, err := s.tickets.Generate(ctx, req)
	ticketDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		var genErr *domain.GenerationError
		if !errors.As(err, &genErr) {
			err = &domain.GenerationError{Reason: domain.ReasonAssemblyFailed, Err: err}
		}
		return port.StatusGenerationFailed, err
	}
	if len(doc) == 0 {
		return port.StatusGenerationFailed, &domain.GenerationError{Reason: domain.ReasonAssemblyFailed}
	}

	attachment := port.Attachment{
		Name:        TicketFileName,
		ContentType: TicketContentType,
		Content:     doc,
	}
	if err := s.mailer.SendMessageWithAttachment(ctx, req.Email, ConfirmationSubject, body, attachment); err != nil {
		return port.StatusDeliveryFailed, &domain.DeliveryError{Err: err}
	}
	return port.StatusSuccess, nil
}
