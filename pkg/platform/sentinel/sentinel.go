package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and transport internals return
// these (optionally wrapped) so higher layers can translate them into user-facing
// messages.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: key does not exist in the credential store
// - ErrNoRefreshToken: a 401 arrived but no refresh token is persisted
// - ErrAlreadyRetried: the request already consumed its single replay
// - ErrUnavailable: backing store temporarily unreachable
var (
	ErrNotFound       = errors.New("not found")
	ErrNoRefreshToken = errors.New("no refresh token")
	ErrAlreadyRetried = errors.New("already retried")
	ErrUnavailable    = errors.New("unavailable")
)
