package guard

import (
	"io"
	"log/slog"
	"net/http"

	"foodbridge/internal/api"
	"foodbridge/internal/platform/metrics"
	"foodbridge/internal/session"
	"foodbridge/pkg/requestcontext"
)

// Guard is the HTTP face of the decision function.
type Guard struct {
	sessions *session.Manager
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// New builds the guard middleware factory.
func New(sessions *session.Manager, log *slog.Logger, m *metrics.Metrics) *Guard {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Guard{sessions: sessions, log: log, metrics: m}
}

// RequireRoles guards a route subtree. While the session is restoring the
// response is 503 with Retry-After — the transport equivalent of a neutral
// loading indicator. Anonymous requests are redirected to login with the
// original location preserved; role mismatches are redirected to the
// current role's dashboard root.
func (g *Guard) RequireRoles(roles ...api.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := Decide(g.sessions.State(), r.URL.RequestURI(), roles...)

			switch result.Decision {
			case Wait:
				w.Header().Set("Retry-After", "1")
				http.Error(w, "session restoring", http.StatusServiceUnavailable)

			case RedirectLogin:
				g.metrics.ObserveGuardRedirect("login")
				g.log.InfoContext(r.Context(), "guard redirect to login",
					"requested", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				http.Redirect(w, r, result.Location, http.StatusFound)

			case RedirectDashboard:
				g.metrics.ObserveGuardRedirect("dashboard")
				g.log.InfoContext(r.Context(), "guard redirect to role dashboard",
					"requested", r.URL.Path,
					"dashboard", result.Location,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				http.Redirect(w, r, result.Location, http.StatusFound)

			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
