// Package api is the single configured HTTP client for the remote
// FoodBridge REST API. All authentication concerns — bearer attachment,
// the one-shot 401 refresh-and-replay cycle, error discrimination — live
// here so callers only ever see typed results and *apierrors.Error values.
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
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"foodbridge/internal/credstore"
	"foodbridge/internal/platform/metrics"
	"foodbridge/pkg/apierrors"
)

// REST endpoint paths, relative to the configured base URL.
const (
	pathToken          = "/token/"
	pathTokenRefresh   = "/token/refresh/"
	pathCurrentUser    = "/users/me/"
	pathRegister       = "/register/"
	pathUpdateProfile  = "/users/update_profile/"
	pathChangePassword = "/users/change_password/"
	pathDonations      = "/donations/"
	pathWasteLogs      = "/waste-logs/"
	pathUsers          = "/users/"
	pathFoodCategories = "/food-categories/"
)

// Options configures the API client.
type Options struct {
	// BaseURL is the API root, e.g. "https://api.foodbridge.example/api".
	BaseURL string
	// Creds is the credential store read before every request.
	Creds credstore.Store
	// Transport overrides the base RoundTripper (tests); defaults to
	// http.DefaultTransport.
	Transport http.RoundTripper
	// Timeout bounds each request including the refresh-and-replay cycle.
	Timeout time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Client is the shared API client. Safe for concurrent use.
type Client struct {
	baseURL   string
	http      *http.Client
	transport *authTransport
	log       *slog.Logger
	tracer    trace.Tracer
}

// New builds the client. The refresh hooks start unset; the session manager
// attaches them via SetRefreshHooks once it exists.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	if opts.Creds == nil {
		return nil, errors.New("api: credential store is required")
	}

	parsed, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("api: parse base URL: %w", err)
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	basePath := strings.TrimRight(parsed.Path, "/")

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	transport := &authTransport{
		base:       base,
		creds:      opts.Creds,
		refreshURL: baseURL + pathTokenRefresh,
		exempt: map[string]struct{}{
			basePath + pathToken:        {},
			basePath + pathTokenRefresh: {},
		},
		log:     log,
		metrics: opts.Metrics,
	}

	return &Client{
		baseURL:   baseURL,
		http:      &http.Client{Transport: transport, Timeout: timeout},
		transport: transport,
		log:       log,
		tracer:    otel.Tracer("foodbridge/api"),
	}, nil
}

// SetRefreshHooks wires session callbacks into the refresh cycle: onRefresh
// after fresh tokens are persisted, onRefreshFailure after a fatal exchange
// has cleared them. Call once during startup, before serving requests.
func (c *Client) SetRefreshHooks(
	onRefresh func(ctx context.Context, access, refresh string),
	onRefreshFailure func(ctx context.Context, err error),
) {
	c.transport.onRefresh = onRefresh
	c.transport.onRefreshFailure = onRefreshFailure
}

// Token exchanges email and password for an access/refresh token pair.
// Persisting the pair is the caller's responsibility.
func (c *Client) Token(ctx context.Context, email, password string) (*TokenPair, error) {
	var tokens TokenPair
	payload := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, "api.token", http.MethodPost, pathToken, payload, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// CurrentUser fetches the authenticated account.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, "api.current_user", http.MethodGet, pathCurrentUser, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates a new account. It does not log the account in.
func (c *Client) Register(ctx context.Context, input RegisterInput) error {
	return c.do(ctx, "api.register", http.MethodPost, pathRegister, input, nil)
}

// UpdateProfile replaces the mutable profile fields and returns the
// server's representation of the updated account.
func (c *Client) UpdateProfile(ctx context.Context, input UpdateProfileInput) (*User, error) {
	var user User
	if err := c.do(ctx, "api.update_profile", http.MethodPut, pathUpdateProfile, input, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	payload := changePasswordInput{
		OldPassword:        oldPassword,
		NewPassword:        newPassword,
		ConfirmNewPassword: newPassword,
	}
	return c.do(ctx, "api.change_password", http.MethodPost, pathChangePassword, payload, nil)
}

// Donations lists donations visible to the current account.
func (c *Client) Donations(ctx context.Context) ([]Donation, error) {
	var donations []Donation
	if err := c.do(ctx, "api.donations", http.MethodGet, pathDonations, nil, &donations); err != nil {
		return nil, err
	}
	return donations, nil
}

// WasteLogs lists waste-log entries visible to the current account.
func (c *Client) WasteLogs(ctx context.Context) ([]WasteLog, error) {
	var logs []WasteLog
	if err := c.do(ctx, "api.waste_logs", http.MethodGet, pathWasteLogs, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// Users lists accounts; the server restricts this to admins.
func (c *Client) Users(ctx context.Context) ([]UserSummary, error) {
	var users []UserSummary
	if err := c.do(ctx, "api.users", http.MethodGet, pathUsers, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FoodCategories lists the food category catalogue.
func (c *Client) FoodCategories(ctx context.Context) ([]FoodCategory, error) {
	var categories []FoodCategory
	if err := c.do(ctx, "api.food_categories", http.MethodGet, pathFoodCategories, nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// do runs one API call end to end: marshal, send through the intercepting
// transport, discriminate errors, decode. Every failure it returns carries
// an *apierrors.Error in its chain.
func (c *Client) do(ctx context.Context, span, method, path string, body, out any) error {
	ctx, sp := c.tracer.Start(ctx, span)
	defer sp.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// The transport surfaces refresh failures as *apierrors.Error
		// wrapped in *url.Error; anything else means no response arrived.
		var apiErr *apierrors.Error
		if !errors.As(err, &apiErr) {
			err = apierrors.Connectivity(err)
		}
		sp.RecordError(err)
		sp.SetStatus(codes.Error, "request failed")
		return err
	}
	defer drainAndClose(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		sp.RecordError(apiErr)
		sp.SetStatus(codes.Error, "api error")
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
