package port

import (
	"context"

	"github.com/infoevent/notification-service/internal/domain"
)

// TicketGenerator renders the printable ticket for a confirmation.
// A failure is always a *domain.GenerationError and comes with no bytes.
type TicketGenerator interface {
	Generate(ctx context.Context, req domain.NotificationRequest) ([]byte, error)
}
