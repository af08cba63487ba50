// Package httpapi assembles the public HTTP surface: the domain handlers,
// the shared middleware stack, health, and Prometheus metrics.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradematch/internal/platform/metrics"
	"tradematch/internal/platform/middleware"
	"tradematch/internal/transport/http/shared"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options collects everything the router mounts.
type Options struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Handlers []Registrar
	// Checks maps a dependency name to its health probe. Nil values are
	// skipped so optional subsystems can be passed unconditionally.
	Checks map[string]HealthChecker
}

// New builds the router. Recovery runs outermost so even middleware panics
// become 500s.
func New(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(opts.Logger))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(opts.Metrics))

	r.Get("/healthz", handleHealth(opts.Checks))
	r.Handle("/metrics", promhttp.Handler())

	for _, h := range opts.Handlers {
		h.Register(r)
	}
	return r
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := make(map[string]string, len(checks)+1)
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = "unhealthy"
				continue
			}
			body[name] = "ok"
		}
		if status == http.StatusOK {
			body["status"] = "ok"
		} else {
			body["status"] = "degraded"
		}
		shared.RespondJSON(w, status, body)
	}
}
