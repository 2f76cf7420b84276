// Package metadata extracts client metadata (IP, User-Agent, device label)
// from incoming requests and stores it in the request context.
package metadata

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"foodbridge/pkg/requestcontext"
)

// ClientMetadata extracts the client IP address, User-Agent, and a derived
// device label from the request and adds them to the context. Apply early
// in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")

		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, ClientIPFromRequest(r))
		ctx = requestcontext.WithUserAgent(ctx, ua)
		ctx = requestcontext.WithDeviceLabel(ctx, DeviceLabelFromUserAgent(ua))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceLabelFromUserAgent renders a User-Agent string as a short
// human-readable label such as "Chrome on Linux", for session logs.
func DeviceLabelFromUserAgent(ua string) string {
	if ua == "" {
		return "unknown device"
	}
	parsed := useragent.New(ua)
	name, _ := parsed.Browser()
	os := parsed.OS()
	switch {
	case name != "" && os != "":
		return fmt.Sprintf("%s on %s", name, os)
	case name != "":
		return name
	case os != "":
		return os
	default:
		return "unknown device"
	}
}

// ClientIPFromRequest extracts the real client IP, handling proxies and
// load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...);
	// the first one is the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	// X-Real-IP is set by nginx and similar proxies.
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
