// Package errors renders caller-facing HTTP errors as RFC 7807 problem
// documents. Only the title and detail given here ever reach the client.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// AppError is an error with a fixed HTTP status and a client-safe message.
type AppError struct {
	Status int
	Title  string
	Detail string
}

func New(status int, title, detail string) *AppError {
	return &AppError{Status: status, Title: title, Detail: detail}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Title, e.Detail)
}

type problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError writes err as a problem document. Anything that is not an
// *AppError becomes a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = New(http.StatusInternalServerError, "Internal Server Error", "An unexpected error occurred")
	}

	p := problem{
		Type:      "about:blank",
		Title:     appErr.Title,
		Status:    appErr.Status,
		Detail:    appErr.Detail,
		Instance:  r.URL.Path,
		RequestID: middleware.GetReqID(r.Context()),
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(appErr.Status)
	_ = json.NewEncoder(w).Encode(p)
}
