package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infoevent/notification-service/internal/adapter/cache/memory"
	"github.com/infoevent/notification-service/internal/domain"
	"github.com/infoevent/notification-service/internal/port"
	"github.com/infoevent/notification-service/internal/port/porttest"
	"github.com/infoevent/notification-service/internal/service"
)

type fixture struct {
	mailer  *porttest.MailerMock
	tickets *porttest.TicketGeneratorMock
	router  http.Handler
}

func newFixture(t *testing.T, idempotency port.IdempotencyStore) *fixture {
	t.Helper()
	f := &fixture{mailer: &porttest.MailerMock{}, tickets: &porttest.TicketGeneratorMock{}}
	svc := service.NewNotificationImpl(f.mailer, f.tickets)
	f.router = NewRouter(NewNotificationHandler(svc, idempotency), RouterOptions{
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   1 << 12,
	})
	return f
}

func (f *fixture) post(path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRegister(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/notifications/register", `{"email":"a@b.com","firstName":"Ada","lastName":"Lovelace"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Email sent successfully", body["message"])
	assert.NotEmpty(t, body["dispatchId"])

	calls := f.mailer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, service.WelcomeSubject, calls[0].Subject)
	assert.Contains(t, calls[0].Body, "Ada Lovelace")
}

func TestConfirm(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/notifications/confirmation", `{"email":"a@b.com","eventName":"Finale"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Email with attachment sent successfully", decode(t, rec)["message"])
	calls := f.mailer.Calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Attachment)
	assert.Equal(t, "ticket.pdf", calls[0].Attachment.Name)
}

func TestInvalidEmail(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/notifications/register", `{"email":"not-an-address"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Invalid notification request", decode(t, rec)["detail"])
	assert.Empty(t, f.mailer.Calls())
}

func TestMalformedJSON(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.post("/notifications/register", `{"email":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Malformed JSON payload", decode(t, rec)["detail"])
}

func TestWrongContentType(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/notifications/register", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestBodyTooLarge(t *testing.T) {
	f := newFixture(t, nil)

	big := `{"email":"a@b.com","eventName":"` + strings.Repeat("x", 1<<13) + `"}`
	rec := f.post("/notifications/register", big)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, f.mailer.Calls())
}

func TestGenerationFailureIsGeneric(t *testing.T) {
	f := newFixture(t, nil)
	f.tickets.GenerateFunc = func(context.Context, domain.NotificationRequest) ([]byte, error) {
		return nil, &domain.GenerationError{Reason: domain.ReasonImageMalformed, Err: errors.New("png: invalid format: not a PNG file")}
	}

	rec := f.post("/notifications/confirmation", `{"email":"a@b.com","qrCode":"AAEC"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "png")
	assert.Equal(t, "Failed to generate ticket", decode(t, rec)["detail"])
	assert.Empty(t, f.mailer.Calls())
}

func TestDeliveryFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.mailer.SendMessageFunc = func(context.Context, string, string, string) error {
		return errors.New("dial tcp 10.0.0.5:587: i/o timeout")
	}

	rec := f.post("/notifications/register", `{"email":"a@b.com"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
	assert.Equal(t, "Failed to send email", decode(t, rec)["detail"])
}

func TestIdempotentReplay(t *testing.T) {
	f := newFixture(t, memory.NewIdempotencyStore(time.Hour))

	first := f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "req-42")
	require.Equal(t, http.StatusOK, first.Code)

	second := f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "req-42")
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// Same key on the other endpoint is a different operation.
	third := f.post("/notifications/confirmation", `{"email":"a@b.com"}`, "Idempotency-Key", "req-42")
	require.Equal(t, http.StatusOK, third.Code)
	assert.Empty(t, third.Header().Get("Idempotent-Replayed"))

	assert.Len(t, f.mailer.Calls(), 2)
}

func TestFailedCallsAreNotRemembered(t *testing.T) {
	f := newFixture(t, memory.NewIdempotencyStore(time.Hour))

	rec := f.post("/notifications/register", `{"email":"bad"}`, "Idempotency-Key", "k")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "k")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	assert.Len(t, f.mailer.Calls(), 1)
}

func TestInvalidIdempotencyKey(t *testing.T) {
	f := newFixture(t, memory.NewIdempotencyStore(time.Hour))

	rec := f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", strings.Repeat("k", 200))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.mailer.Calls())
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.post("/notifications/register", `{"email":"a@b.com"}`)

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notifications_dispatched_total")
}

func TestConcurrentRetryIsNotDispatchedTwice(t *testing.T) {
	f := newFixture(t, memory.NewIdempotencyStore(time.Hour))
	sending := make(chan struct{})
	unblock := make(chan struct{})
	f.mailer.SendMessageFunc = func(context.Context, string, string, string) error {
		close(sending)
		<-unblock
		return nil
	}

	firstDone := make(chan *httptest.ResponseRecorder)
	go func() {
		firstDone <- f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "k1")
	}()
	<-sending

	retry := f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusConflict, retry.Code)

	close(unblock)
	first := <-firstDone
	require.Equal(t, http.StatusOK, first.Code)

	again := f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "k1")
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	assert.Len(t, f.mailer.Calls(), 1)
}

func TestDeliveryFailureReleasesIdempotencyKey(t *testing.T) {
	f := newFixture(t, memory.NewIdempotencyStore(time.Hour))
	f.mailer.SendMessageFunc = func(context.Context, string, string, string) error {
		return errors.New("relay down")
	}

	rec := f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "k2")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	f.mailer.SendMessageFunc = nil
	rec = f.post("/notifications/register", `{"email":"a@b.com"}`, "Idempotency-Key", "k2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Idempotent-Replayed"))
	assert.Len(t, f.mailer.Calls(), 2)
}

func TestHealthzReportsChecks(t *testing.T) {
	svc := service.NewNotificationImpl(&porttest.MailerMock{}, &porttest.TicketGeneratorMock{})
	connected := true
	router := NewRouter(NewNotificationHandler(svc, nil), RouterOptions{
		HealthChecks: map[string]func() bool{"nats": func() bool { return connected }},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"nats":true}}`, rec.Body.String())

	connected = false
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"nats":false}}`, rec.Body.String())
}
