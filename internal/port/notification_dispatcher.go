package port

import (
	"context"

	"github.com/infoevent/notification-service/internal/domain"
)

// OutcomeStatus is the terminal state of one dispatch.
type OutcomeStatus string

const (
	StatusSuccess          OutcomeStatus = "success"
	StatusValidationFailed OutcomeStatus = "validation_failed"
	StatusGenerationFailed OutcomeStatus = "generation_failed"
	StatusDeliveryFailed   OutcomeStatus = "delivery_failed"
)

// Outcome is what a dispatch returns to its inbound adapter. Err carries the
// classified cause for logging and must not be shown to the caller.
type Outcome struct {
	DispatchID string
	Kind       domain.Kind
	Status     OutcomeStatus
	Err        error
}

func (o Outcome) OK() bool { return o.Status == StatusSuccess }

// NotificationDispatcher sequences validation, composition, ticket
// generation and delivery for one notification.
type NotificationDispatcher interface {
	Register(ctx context.Context, req domain.NotificationRequest) Outcome
	Confirm(ctx context.Context, req domain.NotificationRequest) Outcome
	Dispatch(ctx context.Context, kind domain.Kind, req domain.NotificationRequest) Outcome
}
