package guard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbridge/internal/api"
	"foodbridge/internal/credstore"
	"foodbridge/internal/session"
)

// newSessionManager builds a manager backed by a stub API with one donor
// account.
func newSessionManager(t *testing.T) *session.Manager {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte(`{"access":"A1","refresh":"R1"}`))
	})
	mux.HandleFunc("/api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		_, _ = w.Write([]byte(`{"id": 7, "email": "donor@example.com", "role": "donor"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	creds := credstore.NewMemoryStore()
	client, err := api.New(api.Options{BaseURL: server.URL + "/api", Creds: creds})
	require.NoError(t, err)
	return session.NewManager(client, creds, nil, nil)
}

func serveGuarded(g *Guard, target string, roles ...api.Role) *httptest.ResponseRecorder {
	handler := g.RequireRoles(roles...)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("content"))
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

// Until Initialize has settled the session, guarded routes answer 503 with
// a retry hint instead of guessing at a redirect.
func TestGuardWaitsWhileRestoring(t *testing.T) {
	sessions := newSessionManager(t)
	g := New(sessions, nil, nil)

	rec := serveGuarded(g, "/donor", api.RoleDonor)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	sessions := newSessionManager(t)
	sessions.Initialize(context.Background())
	g := New(sessions, nil, nil)

	rec := serveGuarded(g, "/donor?tab=open", api.RoleDonor)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?next=%2Fdonor%3Ftab%3Dopen", rec.Header().Get("Location"))
}

func TestGuardAllowsMatchingRole(t *testing.T) {
	sessions := newSessionManager(t)
	g := New(sessions, nil, nil)
	require.NoError(t, sessions.Login(context.Background(), "donor@example.com", "hunter2"))

	rec := serveGuarded(g, "/donor", api.RoleDonor)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "content", rec.Body.String())
}

// A signed-in donor asking for the admin dashboard lands on their own
// dashboard, never back at login.
func TestGuardRedirectsRoleMismatchToOwnDashboard(t *testing.T) {
	sessions := newSessionManager(t)
	g := New(sessions, nil, nil)
	require.NoError(t, sessions.Login(context.Background(), "donor@example.com", "hunter2"))

	rec := serveGuarded(g, "/admin", api.RoleAdmin)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, DonorDashboardPath, rec.Header().Get("Location"))
}
