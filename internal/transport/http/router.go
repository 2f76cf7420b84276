// Package httptransport wires the gateway's local HTTP surface: auth
// operations, role-gated dashboards, health and metrics.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"foodbridge/internal/api"
	"foodbridge/internal/guard"
	"foodbridge/internal/session"
	"foodbridge/pkg/platform/middleware/metadata"
	"foodbridge/pkg/platform/middleware/requestid"
	"foodbridge/pkg/platform/middleware/requesttime"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Sessions *session.Manager
	Client   *api.Client
	Guard    *guard.Guard
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// NewRouter wires all gateway endpoints.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)

	NewAuthHandler(deps.Sessions, deps.Logger).Register(r)
	NewDashboardHandler(deps.Client, deps.Sessions, deps.Logger).Register(r, deps.Guard)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	return r
}
