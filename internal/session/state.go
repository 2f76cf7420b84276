package session

import (
	"time"

	"foodbridge/internal/api"
)

// Status is the session lifecycle state.
//
//	uninitialized → restoring → {authenticated, anonymous}
//
// authenticated transitions to anonymous on logout or fatal refresh failure.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusRestoring     Status = "restoring"
	StatusAuthenticated Status = "authenticated"
	StatusAnonymous     Status = "anonymous"
)

// State is an immutable snapshot of the session. Readers get a copy; all
// mutation happens inside the Manager as whole-state replacement, so a
// snapshot is never internally inconsistent.
type State struct {
	Status Status

	// User is nil when unauthenticated. Replaced wholesale on every fetch
	// or update.
	User *api.User

	AccessToken  string
	RefreshToken string

	// IsAuthenticated is true iff an access token is present and the most
	// recent user fetch succeeded.
	IsAuthenticated bool

	// IsLoading is true from construction until the initial restoration
	// attempt completes, and during each in-flight operation.
	IsLoading bool

	// Error is the human-readable message for the most recent failed
	// operation; empty after Logout or when a new operation starts.
	Error string

	// TokenExpiry is the access token's advisory expiry, read from its
	// unverified claims. Zero when unknown.
	TokenExpiry time.Time
}

// Role returns the current user's role, or "" when unauthenticated.
func (s State) Role() api.Role {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// clone deep-copies the snapshot so callers can never reach the Manager's
// live state through the User pointer.
func (s State) clone() State {
	out := s
	if s.User != nil {
		user := *s.User
		out.User = &user
	}
	return out
}
