package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"foodbridge/internal/credstore"
	"foodbridge/internal/platform/metrics"
	"foodbridge/pkg/apierrors"
	"foodbridge/pkg/platform/sentinel"
)

// authTransport is the outbound/inbound interceptor pair around every API
// request:
//
//   - Outbound: reads the current access token from the credential store
//     immediately before send — never from a captured in-memory copy — and
//     attaches it as a bearer header.
//   - Inbound: on a 401 for a request that has not been replayed and for
//     which a refresh token exists, exchanges the refresh token, persists
//     the new access token, and replays the original request once. A
//     failing exchange clears both tokens, notifies the session, and
//     propagates the refresh error.
//
// Concurrent 401s coalesce: refresh calls are deduplicated per refresh-token
// value, so a burst of expired-token failures triggers a single exchange.
type authTransport struct {
	base       http.RoundTripper
	creds      credstore.Store
	refreshURL string
	// exempt paths (the token endpoints themselves) never trigger a refresh
	// cycle: a 401 from /token/ means bad credentials, not a stale token.
	exempt map[string]struct{}

	group   singleflight.Group
	log     *slog.Logger
	metrics *metrics.Metrics

	// onRefresh receives freshly minted tokens (rotated refresh may be "").
	onRefresh func(ctx context.Context, access, refresh string)
	// onRefreshFailure fires after a failed exchange has cleared stored
	// tokens; the session resets itself to anonymous here.
	onRefreshFailure func(ctx context.Context, err error)
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(t.withBearer(req))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	if _, ok := t.exempt[req.URL.Path]; ok {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		// Not replayable; the 401 stands.
		return resp, nil
	}

	refreshToken, getErr := t.creds.Get(req.Context(), credstore.KeyRefreshToken)
	if getErr != nil {
		return resp, nil
	}

	// The original response is abandoned in favor of the replay.
	drainAndClose(resp)

	if _, refreshErr := t.refresh(req.Context(), refreshToken); refreshErr != nil {
		return nil, fmt.Errorf("token refresh: %w", refreshErr)
	}

	return t.base.RoundTrip(t.withBearer(t.rewind(req)))
}

// withBearer clones the request and attaches the currently stored access
// token, if any. The clone keeps the RoundTripper contract of not mutating
// the caller's request.
func (t *authTransport) withBearer(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	token, err := t.creds.Get(req.Context(), credstore.KeyAccessToken)
	if err == nil && token != "" {
		clone.Header.Set("Authorization", "Bearer "+token)
	} else {
		clone.Header.Del("Authorization")
	}
	return clone
}

// rewind restores a replayable body on the original request.
func (t *authTransport) rewind(req *http.Request) *http.Request {
	if req.GetBody == nil {
		return req
	}
	body, err := req.GetBody()
	if err != nil {
		return req
	}
	clone := req.Clone(req.Context())
	clone.Body = body
	return clone
}

// refresh exchanges the refresh token for a new access token, persisting
// the result. Concurrent callers holding the same refresh token share one
// exchange. Any failure clears both stored tokens and fires the
// session-logout hook before returning.
func (t *authTransport) refresh(ctx context.Context, refreshToken string) (string, error) {
	access, err, _ := t.group.Do(refreshToken, func() (any, error) {
		// The exchange outlives any single triggering request.
		ctx := context.WithoutCancel(ctx)

		tokens, err := t.exchange(ctx, refreshToken)
		if err != nil {
			t.metrics.ObserveRefresh("failure")
			t.log.WarnContext(ctx, "token refresh failed, clearing session", "error", err)
			t.clearTokens(ctx)
			if t.onRefreshFailure != nil {
				t.onRefreshFailure(ctx, err)
			}
			return "", err
		}

		if err := t.creds.Set(ctx, credstore.KeyAccessToken, tokens.Access); err != nil {
			t.metrics.ObserveRefresh("failure")
			return "", fmt.Errorf("persist access token: %w", err)
		}
		if tokens.Refresh != "" {
			if err := t.creds.Set(ctx, credstore.KeyRefreshToken, tokens.Refresh); err != nil {
				return "", fmt.Errorf("persist refresh token: %w", err)
			}
		}

		t.metrics.ObserveRefresh("success")
		if t.onRefresh != nil {
			t.onRefresh(ctx, tokens.Access, tokens.Refresh)
		}
		return tokens.Access, nil
	})
	if err != nil {
		return "", err
	}
	return access.(string), nil
}

// exchange performs the raw refresh-token call, bypassing the interceptor.
func (t *authTransport) exchange(ctx context.Context, refreshToken string) (*refreshResponse, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, apierrors.Connectivity(err)
	}
	defer drainAndClose(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var tokens refreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokens); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if tokens.Access == "" {
		return nil, errors.New("refresh response missing access token")
	}
	return &tokens, nil
}

func (t *authTransport) clearTokens(ctx context.Context) {
	if err := t.creds.Remove(ctx, credstore.KeyAccessToken); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		t.log.ErrorContext(ctx, "failed to clear access token", "error", err)
	}
	if err := t.creds.Remove(ctx, credstore.KeyRefreshToken); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		t.log.ErrorContext(ctx, "failed to clear refresh token", "error", err)
	}
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
}
