package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbridge/internal/credstore"
	"foodbridge/pkg/apierrors"
	"foodbridge/pkg/platform/sentinel"
)

// refreshingAPI is a stub server whose protected endpoints accept only the
// current access token and whose refresh endpoint mints the next one.
type refreshingAPI struct {
	mu           sync.Mutex
	currentToken string
	refreshToken string
	refreshCalls atomic.Int32
	refreshDelay time.Duration
	refreshFails bool
}

func (s *refreshingAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.mu.Lock()
		want := "Bearer " + s.currentToken
		s.mu.Unlock()
		if r.Header.Get("Authorization") != want {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(userJSON))
	})

	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		s.refreshCalls.Add(1)
		time.Sleep(s.refreshDelay)

		if s.refreshFails {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
			return
		}

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		s.mu.Lock()
		assert.Equal(t, s.refreshToken, req["refresh"])
		s.currentToken = "A2"
		s.mu.Unlock()
		_, _ = w.Write([]byte(`{"access":"A2"}`))
	})

	return mux
}

// An expired access token yields exactly one refresh call; the original
// request is transparently replayed and its result returned. The caller
// never observes the 401.
func TestRefreshAndReplayOn401(t *testing.T) {
	stub := &refreshingAPI{currentToken: "A2", refreshToken: "R1"}
	client, creds := newTestClient(t, stub.handler(t))

	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, credstore.KeyAccessToken, "expired"))
	require.NoError(t, creds.Set(ctx, credstore.KeyRefreshToken, "R1"))

	var refreshed atomic.Bool
	client.SetRefreshHooks(
		func(_ context.Context, access, _ string) {
			refreshed.Store(true)
			assert.Equal(t, "A2", access)
		},
		func(context.Context, error) { t.Error("refresh failure hook must not fire") },
	)

	user, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	assert.Equal(t, int32(1), stub.refreshCalls.Load())
	assert.True(t, refreshed.Load())

	access, err := creds.Get(ctx, credstore.KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "A2", access, "new access token must be persisted")
}

// A failing refresh exchange clears both stored tokens, fires the logout
// hook, and propagates the refresh error to the caller.
func TestRefreshFailureClearsSession(t *testing.T) {
	stub := &refreshingAPI{currentToken: "A2", refreshToken: "R1", refreshFails: true}
	client, creds := newTestClient(t, stub.handler(t))

	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, credstore.KeyAccessToken, "expired"))
	require.NoError(t, creds.Set(ctx, credstore.KeyRefreshToken, "R1"))

	var loggedOut atomic.Bool
	client.SetRefreshHooks(
		func(context.Context, string, string) { t.Error("refresh success hook must not fire") },
		func(_ context.Context, err error) {
			loggedOut.Store(true)
			assert.True(t, apierrors.Is(err, apierrors.CodeUnauthorized))
		},
	)

	_, err := client.CurrentUser(ctx)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeUnauthorized))
	assert.True(t, loggedOut.Load())

	_, err = creds.Get(ctx, credstore.KeyAccessToken)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	_, err = creds.Get(ctx, credstore.KeyRefreshToken)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

// Without a refresh token the 401 passes through unmodified.
func TestNoRefreshTokenPassesThrough401(t *testing.T) {
	stub := &refreshingAPI{currentToken: "A2", refreshToken: "R1"}
	client, creds := newTestClient(t, stub.handler(t))

	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, credstore.KeyAccessToken, "expired"))

	_, err := client.CurrentUser(ctx)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeUnauthorized))
	assert.Equal(t, int32(0), stub.refreshCalls.Load())
}

// Concurrent requests failing on the same expired token coalesce into a
// single refresh exchange.
func TestConcurrent401sShareOneRefresh(t *testing.T) {
	stub := &refreshingAPI{currentToken: "A2", refreshToken: "R1", refreshDelay: 250 * time.Millisecond}
	client, creds := newTestClient(t, stub.handler(t))

	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, credstore.KeyAccessToken, "expired"))
	require.NoError(t, creds.Set(ctx, credstore.KeyRefreshToken, "R1"))

	const parallel = 5
	var wg sync.WaitGroup
	errs := make([]error, parallel)
	for i := 0; i < parallel; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.CurrentUser(ctx)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, int32(1), stub.refreshCalls.Load(), "concurrent 401s must share one refresh")
}

// The replayed request is not intercepted again: a second 401 after a
// successful refresh is terminal for that request.
func TestSingleRetryPerRequest(t *testing.T) {
	var meCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/me/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		meCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"still not valid"}`))
	})
	var refreshCalls atomic.Int32
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		refreshCalls.Add(1)
		_, _ = w.Write([]byte(`{"access":"A2"}`))
	})

	client, creds := newTestClient(t, mux)
	ctx := context.Background()
	require.NoError(t, creds.Set(ctx, credstore.KeyAccessToken, "expired"))
	require.NoError(t, creds.Set(ctx, credstore.KeyRefreshToken, "R1"))

	_, err := client.CurrentUser(ctx)
	require.Error(t, err)
	assert.True(t, apierrors.Is(err, apierrors.CodeUnauthorized))
	assert.Equal(t, int32(2), meCalls.Load(), "original send plus exactly one replay")
	assert.Equal(t, int32(1), refreshCalls.Load())
}
