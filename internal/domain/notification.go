package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind names one of the two notification shapes the service can send.
type Kind string

const (
	KindWelcome      Kind = "welcome"
	KindConfirmation Kind = "confirmation"
)

func (k Kind) Valid() bool {
	return k == KindWelcome || k == KindConfirmation
}

var validate = validator.New()

// NotificationRequest describes one recipient and the event they bought a
// ticket for. Only Email is required; an empty string means the field is
// absent. QRCode holds raw raster image bytes.
type NotificationRequest struct {
	FirstName  string
	LastName   string
	Email      string `validate:"required,email"`
	TicketType string
	Price      string
	EventName  string
	DateTime   string
	VenueName  string
	Location   string
	QRCode     []byte
}

// NewNotificationRequest validates req and returns a copy that does not
// share the QR code buffer with the caller.
func NewNotificationRequest(req NotificationRequest) (NotificationRequest, error) {
	if err := req.Validate(); err != nil {
		return NotificationRequest{}, err
	}
	if len(req.QRCode) > 0 {
		req.QRCode = append([]byte(nil), req.QRCode...)
	}
	return req, nil
}

// Validate reports a *ValidationError when the email is missing or malformed.
func (r NotificationRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return &ValidationError{Field: "email", Reason: "required"}
	}
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return &ValidationError{Field: "email", Reason: fieldErrs[0].Tag()}
	}
	return &ValidationError{Field: "email", Reason: err.Error()}
}

// FullName returns "first last" and true only when both parts are present.
func (r NotificationRequest) FullName() (string, bool) {
	if r.FirstName == "" || r.LastName == "" {
		return "", false
	}
	return r.FirstName + " " + r.LastName, true
}

func (r NotificationRequest) HasQRCode() bool {
	return len(r.QRCode) > 0
}
