// Package credstore persists the session's bearer credentials. It is the
// durable analogue of the browser's origin-scoped storage: two opaque
// strings under fixed keys, no validation, no expiry tracking — callers
// own both.
package credstore

import "context"

// Fixed storage keys. Absence of both implies an anonymous session on the
// next start.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Store is the credential persistence contract. Get returns
// sentinel.ErrNotFound (possibly wrapped) when the key has no value.
// Remove of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
