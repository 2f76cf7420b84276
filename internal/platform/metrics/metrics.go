package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the gateway.
type Metrics struct {
	Logins         *prometheus.CounterVec
	TokenRefreshes *prometheus.CounterVec
	GuardRedirects *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry and returns both.
// A dedicated registry keeps tests isolated from the default global one.
func New() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Logins: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodbridge_logins_total",
			Help: "Login attempts against the remote API, by result.",
		}, []string{"result"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodbridge_token_refreshes_total",
			Help: "Access-token refresh attempts triggered by 401 responses, by result.",
		}, []string{"result"}),
		GuardRedirects: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodbridge_guard_redirects_total",
			Help: "Route-guard redirect decisions, by reason.",
		}, []string{"reason"}),
	}, reg
}

// ObserveLogin records one login attempt outcome ("success" or "failure").
func (m *Metrics) ObserveLogin(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

// ObserveRefresh records one refresh attempt outcome ("success" or "failure").
func (m *Metrics) ObserveRefresh(result string) {
	if m == nil {
		return
	}
	m.TokenRefreshes.WithLabelValues(result).Inc()
}

// ObserveGuardRedirect records one guard redirect ("login" or "dashboard").
func (m *Metrics) ObserveGuardRedirect(reason string) {
	if m == nil {
		return
	}
	m.GuardRedirects.WithLabelValues(reason).Inc()
}
