// Package requestid assigns a correlation ID to every request so log lines
// from one request can be tied together.
package requestid

import (
	"net/http"

	"github.com/google/uuid"

	"foodbridge/pkg/requestcontext"
)

// Header carries the request ID on responses and is honored on requests so
// callers can propagate their own correlation IDs.
const Header = "X-Request-Id"

// Middleware attaches a request ID to the context and echoes it on the
// response. An incoming X-Request-Id is reused; otherwise a UUID is minted.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
