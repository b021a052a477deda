package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// RouterOptions tunes the HTTP surface.
type RouterOptions struct {
	AllowedOrigins []string
	MaxBodyBytes   int64
	ServiceName    string
	// HealthChecks are reported by /healthz; any false answer turns it 503.
	HealthChecks map[string]func() bool
}

// NewRouter mounts the notification endpoints plus health and metrics.
func NewRouter(h *NotificationHandler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", headerIdempotencyKey},
		ExposedHeaders: []string{headerReplayed},
		MaxAge:         300,
	}))

	r.Get("/healthz", healthHandler(opts.HealthChecks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/notifications", func(r chi.Router) {
		if opts.MaxBodyBytes > 0 {
			r.Use(middleware.RequestSize(opts.MaxBodyBytes))
		}
		r.Use(middleware.AllowContentType("application/json"))
		r.Post("/register", h.Register)
		r.Post("/confirmation", h.Confirm)
	})

	name := opts.ServiceName
	if name == "" {
		name = "notification-service"
	}
	return otelhttp.NewHandler(r, name)
}

type health struct {
	Status string          `json:"status"`
	Checks map[string]bool `json:"checks,omitempty"`
}

func healthHandler(checks map[string]func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		out := health{Status: "ok"}
		code := http.StatusOK
		if len(checks) > 0 {
			out.Checks = make(map[string]bool, len(checks))
			for name, check := range checks {
				ok := check()
				out.Checks[name] = ok
				if !ok {
					out.Status, code = "degraded", http.StatusServiceUnavailable
				}
			}
		}
		data, _ := json.Marshal(out)
		writeJSON(w, code, data)
	}
}
