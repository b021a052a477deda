// Package payload holds the wire shape shared by every inbound adapter.
package payload

import (
	"github.com/infoevent/notification-service/internal/domain"
	"github.com/infoevent/notification-service/internal/port"
)

// Notification is the JSON body of a register or confirmation call. QRCode
// travels as standard base64.
type Notification struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	TicketType string `json:"ticketType"`
	Price      string `json:"price"`
	EventName  string `json:"eventName"`
	DateTime   string `json:"dateTime"`
	VenueName  string `json:"venueName"`
	Location   string `json:"location"`
	QRCode     []byte `json:"qrCode"`
}

func (n Notification) ToDomain() domain.NotificationRequest {
	return domain.NotificationRequest{
		FirstName:  n.FirstName,
		LastName:   n.LastName,
		Email:      n.Email,
		TicketType: n.TicketType,
		Price:      n.Price,
		EventName:  n.EventName,
		DateTime:   n.DateTime,
		VenueName:  n.VenueName,
		Location:   n.Location,
		QRCode:     n.QRCode,
	}
}

// Result is the acknowledgement returned to callers. Message is one of a
// fixed set of generic sentences.
type Result struct {
	Status     port.OutcomeStatus `json:"status"`
	Message    string             `json:"message"`
	DispatchID string             `json:"dispatchId,omitempty"`
}

// NewResult builds the caller-facing view of an outcome without any
// internal error text.
func NewResult(o port.Outcome) Result {
	return Result{
		Status:     o.Status,
		Message:    Message(o),
		DispatchID: o.DispatchID,
	}
}

// Message returns the generic sentence for an outcome.
func Message(o port.Outcome) string {
	switch o.Status {
	case port.StatusSuccess:
		if o.Kind == domain.KindConfirmation {
			return "Email with attachment sent successfully"
		}
		return "Email sent successfully"
	case port.StatusValidationFailed:
		return "Invalid notification request"
	case port.StatusGenerationFailed:
		return "Failed to generate ticket"
	default:
		if o.Kind == domain.KindConfirmation {
			return "Error sending email with attachment"
		}
		return "Failed to send email"
	}
}
