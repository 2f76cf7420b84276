package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiry reads the expiry claim from an access token without verifying
// its signature. The token is opaque to this client — the server is the
// authority — so the expiry is advisory, used only for display and logging.
// Returns the zero time when the token is not a parseable JWT.
func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}

	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
