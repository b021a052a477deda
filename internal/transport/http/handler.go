package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/infoevent/notification-service/internal/domain"
	apperrors "github.com/infoevent/notification-service/internal/pkg/errors"
	"github.com/infoevent/notification-service/internal/pkg/logger"
	"github.com/infoevent/notification-service/internal/port"
	"github.com/infoevent/notification-service/internal/transport/payload"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

var validate = validator.New()

// NotificationHandler adapts HTTP calls to the notification dispatcher.
type NotificationHandler struct {
	svc         port.NotificationDispatcher
	idempotency port.IdempotencyStore
}

// NewNotificationHandler wires the handler. idempotency may be nil.
func NewNotificationHandler(svc port.NotificationDispatcher, idempotency port.IdempotencyStore) *NotificationHandler {
	return &NotificationHandler{svc: svc, idempotency: idempotency}
}

// Register handles POST /notifications/register.
func (h *NotificationHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, domain.KindWelcome)
}

// Confirm handles POST /notifications/confirmation.
func (h *NotificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, domain.KindConfirmation)
}

func (h *NotificationHandler) serve(w http.ResponseWriter, r *http.Request, kind domain.Kind) {
	ctx := r.Context()
	log := logger.From(ctx)

	key := r.Header.Get(headerIdempotencyKey)
	if key != "" {
		if err := validate.Var(key, "max=128,printascii"); err != nil {
			apperrors.WriteError(w, r, apperrors.New(http.StatusBadRequest, "Bad Request", "Invalid Idempotency-Key header"))
			return
		}
		var done bool
		key, done = h.reserve(w, r, kind, key)
		if done {
			return
		}
	}

	var body payload.Notification
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.release(r, key)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.WriteError(w, r, apperrors.New(http.StatusRequestEntityTooLarge, "Payload Too Large", "Request body is too large"))
			return
		}
		apperrors.WriteError(w, r, apperrors.New(http.StatusBadRequest, "Bad Request", "Malformed JSON payload"))
		return
	}

	out := h.svc.Dispatch(ctx, kind, body.ToDomain())
	result := payload.NewResult(out)
	if !out.OK() {
		h.release(r, key)
	}

	switch out.Status {
	case port.StatusSuccess:
	case port.StatusValidationFailed:
		apperrors.WriteError(w, r, apperrors.New(http.StatusBadRequest, "Bad Request", result.Message))
		return
	case port.StatusGenerationFailed:
		apperrors.WriteError(w, r, apperrors.New(http.StatusInternalServerError, "Internal Server Error", result.Message))
		return
	default:
		apperrors.WriteError(w, r, apperrors.New(http.StatusBadGateway, "Bad Gateway", result.Message))
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		h.release(r, key)
		apperrors.WriteError(w, r, err)
		return
	}
	if key != "" {
		if err := h.idempotency.Save(context.WithoutCancel(ctx), key, data); err != nil {
			log.Warn("idempotency save failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, data)
}

// reserve claims the idempotency key before dispatching. It returns the
// store key to save under, empty when the call proceeds without
// idempotency, and done when the response was already written. Store
// failures are logged and the request proceeds as if no key was sent.
func (h *NotificationHandler) reserve(w http.ResponseWriter, r *http.Request, kind domain.Kind, key string) (string, bool) {
	if h.idempotency == nil {
		return "", false
	}
	storeKey := idempotencyKey(kind, key)
	reserved, data, err := h.idempotency.Reserve(r.Context(), storeKey)
	if err != nil {
		logger.From(r.Context()).Warn("idempotency reserve failed", "error", err)
		return "", false
	}
	if reserved {
		return storeKey, false
	}
	if data == nil {
		apperrors.WriteError(w, r, apperrors.New(http.StatusConflict, "Conflict", "A request with this Idempotency-Key is still in progress"))
		return "", true
	}
	idempotentReplays.Inc()
	w.Header().Set(headerReplayed, "true")
	writeJSON(w, http.StatusOK, data)
	return "", true
}

// release frees a reservation after a failed call so the client can retry.
func (h *NotificationHandler) release(r *http.Request, storeKey string) {
	if storeKey == "" {
		return
	}
	if err := h.idempotency.Release(context.WithoutCancel(r.Context()), storeKey); err != nil {
		logger.From(r.Context()).Warn("idempotency release failed", "error", err)
	}
}

func idempotencyKey(kind domain.Kind, key string) string {
	return string(kind) + ":" + key
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
