// Package session owns the gateway's authentication state machine: one
// explicitly owned Manager per process, injected into its consumers. All
// mutation funnels through the operations here — each performs an atomic
// whole-state replacement behind a single mutex, so concurrent readers
// never observe a half-updated session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"foodbridge/internal/api"
	"foodbridge/internal/credstore"
	"foodbridge/internal/platform/metrics"
	"foodbridge/pkg/platform/sentinel"
)

// Manager is the session state machine. Safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	state State

	client  *api.Client
	creds   credstore.Store
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewManager builds the session manager and registers itself for the API
// client's refresh notifications. The session starts uninitialized and
// loading; call Initialize once at startup.
func NewManager(client *api.Client, creds credstore.Store, log *slog.Logger, m *metrics.Metrics) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	mgr := &Manager{
		state:   State{Status: StatusUninitialized, IsLoading: true},
		client:  client,
		creds:   creds,
		log:     log,
		metrics: m,
	}
	client.SetRefreshHooks(mgr.handleTokensRefreshed, mgr.handleRefreshFailure)
	return mgr
}

// State returns a deep-copied snapshot of the current session.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// Initialize restores the session from persisted credentials. A rejected or
// missing token is an expected condition, not a user-facing error: the
// session simply ends up anonymous with both tokens cleared.
func (m *Manager) Initialize(ctx context.Context) {
	m.update(func(s *State) {
		s.Status = StatusRestoring
		s.IsLoading = true
	})

	access, err := m.creds.Get(ctx, credstore.KeyAccessToken)
	if err != nil || access == "" {
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			m.log.WarnContext(ctx, "credential store unreadable during restore", "error", err)
		}
		m.resetAnonymous()
		return
	}

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		m.log.InfoContext(ctx, "persisted session rejected, starting anonymous", "error", err)
		m.clearCredentials(ctx)
		m.resetAnonymous()
		return
	}

	// Re-read the tokens: the fetch above may have rotated them through a
	// refresh cycle.
	access, _ = m.creds.Get(ctx, credstore.KeyAccessToken)
	refresh, _ := m.creds.Get(ctx, credstore.KeyRefreshToken)

	m.update(func(s *State) {
		*s = State{
			Status:          StatusAuthenticated,
			User:            user,
			AccessToken:     access,
			RefreshToken:    refresh,
			IsAuthenticated: true,
			TokenExpiry:     tokenExpiry(access),
		}
	})
	m.log.InfoContext(ctx, "session restored", "user", user.Email, "role", user.Role)
}

// Login exchanges credentials for tokens, persists them, and fetches the
// profile. On failure the mapped message lands in session state AND the
// error is returned, so callers can stop their own loading indicators
// without re-mapping anything.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.update(func(s *State) {
		s.Error = ""
		s.IsLoading = true
	})

	tokens, err := m.client.Token(ctx, email, password)
	if err != nil {
		m.metrics.ObserveLogin("failure")
		m.fail(loginMessage(err))
		return fmt.Errorf("login: %w", err)
	}

	if err := m.persistTokens(ctx, tokens.Access, tokens.Refresh); err != nil {
		m.metrics.ObserveLogin("failure")
		m.fail(msgLoginFailed)
		return fmt.Errorf("login: %w", err)
	}

	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		m.metrics.ObserveLogin("failure")
		m.fail(loginMessage(err))
		return fmt.Errorf("login: fetch user: %w", err)
	}

	m.metrics.ObserveLogin("success")
	m.update(func(s *State) {
		*s = State{
			Status:          StatusAuthenticated,
			User:            user,
			AccessToken:     tokens.Access,
			RefreshToken:    tokens.Refresh,
			IsAuthenticated: true,
			TokenExpiry:     tokenExpiry(tokens.Access),
		}
	})
	m.log.InfoContext(ctx, "login succeeded", "user", user.Email, "role", user.Role)
	return nil
}

// Logout clears persisted credentials and resets the session to the
// anonymous, non-loading, error-free state. Never fails; idempotent.
func (m *Manager) Logout() {
	ctx := context.Background()
	m.clearCredentials(ctx)
	m.resetAnonymous()
	m.log.Info("logged out")
}

// Register creates an account. It does not log the new account in.
func (m *Manager) Register(ctx context.Context, input api.RegisterInput) error {
	m.update(func(s *State) {
		s.Error = ""
		s.IsLoading = true
	})

	if err := m.client.Register(ctx, input); err != nil {
		m.fail(registerMessage(err))
		return fmt.Errorf("register: %w", err)
	}

	m.update(func(s *State) { s.IsLoading = false })
	m.log.InfoContext(ctx, "registration submitted", "email", input.Email, "role", input.Role)
	return nil
}

// UpdateProfile replaces the profile server-side and, on success, replaces
// the session's user wholesale with the server's representation.
func (m *Manager) UpdateProfile(ctx context.Context, input api.UpdateProfileInput) error {
	m.update(func(s *State) {
		s.Error = ""
		s.IsLoading = true
	})

	user, err := m.client.UpdateProfile(ctx, input)
	if err != nil {
		m.fail(updateProfileMessage(err))
		return fmt.Errorf("update profile: %w", err)
	}

	m.update(func(s *State) {
		s.User = user
		s.IsLoading = false
	})
	return nil
}

// ChangePassword rotates the password, surfacing old/new password field
// errors by name.
func (m *Manager) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	m.update(func(s *State) {
		s.Error = ""
		s.IsLoading = true
	})

	if err := m.client.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		m.fail(changePasswordMessage(err))
		return fmt.Errorf("change password: %w", err)
	}

	m.update(func(s *State) { s.IsLoading = false })
	m.log.InfoContext(ctx, "password changed")
	return nil
}

// handleTokensRefreshed mirrors transparently refreshed tokens into session
// state. The credential store was already updated by the transport.
func (m *Manager) handleTokensRefreshed(_ context.Context, access, refresh string) {
	m.update(func(s *State) {
		s.AccessToken = access
		if refresh != "" {
			s.RefreshToken = refresh
		}
		s.TokenExpiry = tokenExpiry(access)
	})
}

// handleRefreshFailure is the fatal path: the refresh exchange itself was
// rejected, the transport already cleared stored tokens, and the session
// must re-authenticate.
func (m *Manager) handleRefreshFailure(ctx context.Context, err error) {
	m.log.WarnContext(ctx, "session ended by refresh failure", "error", err)
	m.resetAnonymous()
}

// update applies mutate to a copy of the state and swaps it in whole.
func (m *Manager) update(mutate func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.state.clone()
	mutate(&next)
	m.state = next
}

func (m *Manager) fail(message string) {
	m.update(func(s *State) {
		s.Error = message
		s.IsLoading = false
	})
}

func (m *Manager) resetAnonymous() {
	m.update(func(s *State) {
		*s = State{Status: StatusAnonymous}
	})
}

func (m *Manager) persistTokens(ctx context.Context, access, refresh string) error {
	if err := m.creds.Set(ctx, credstore.KeyAccessToken, access); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := m.creds.Set(ctx, credstore.KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return nil
}

func (m *Manager) clearCredentials(ctx context.Context) {
	if err := m.creds.Remove(ctx, credstore.KeyAccessToken); err != nil {
		m.log.ErrorContext(ctx, "failed to clear access token", "error", err)
	}
	if err := m.creds.Remove(ctx, credstore.KeyRefreshToken); err != nil {
		m.log.ErrorContext(ctx, "failed to clear refresh token", "error", err)
	}
}
