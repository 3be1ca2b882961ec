// Package httptransport assembles the public HTTP surface: the nexus
// transfer routes plus the operational endpoints.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"baranex/internal/nexus/handler"
	"baranex/internal/transport/http/shared"
)

// HealthCheck probes one dependency. A nil-safe implementation should
// report healthy when the dependency is not configured.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// NewRouter wires the nexus routes, /healthz, and the Prometheus scrape
// endpoint. Operational endpoints skip the auth stack.
func NewRouter(nexus *handler.Handler, checks ...HealthCheck) http.Handler {
	r := chi.NewRouter()
	nexus.Register(r)

	r.Get("/healthz", handleHealth(checks))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func handleHealth(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for _, check := range checks {
			if err := check.Probe(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[check.Name] = err.Error()
				continue
			}
			result[check.Name] = "ok"
		}
		shared.WriteJSON(w, status, result)
	}
}
