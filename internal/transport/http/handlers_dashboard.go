package httptransport

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"foodbridge/internal/api"
	"foodbridge/internal/guard"
	"foodbridge/internal/session"
)

// DashboardHandler serves the role-gated dashboard aggregates. Each
// dashboard fans out to the remote read-only collections in parallel and
// fails as a whole on the first collection error.
type DashboardHandler struct {
	client   *api.Client
	sessions *session.Manager
	log      *slog.Logger
}

// NewDashboardHandler creates the dashboard handler.
func NewDashboardHandler(client *api.Client, sessions *session.Manager, log *slog.Logger) *DashboardHandler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &DashboardHandler{client: client, sessions: sessions, log: log}
}

// Register mounts the dashboard routes behind the guard.
func (h *DashboardHandler) Register(r chi.Router, g *guard.Guard) {
	r.With(g.RequireRoles(api.RoleAdmin)).Get(guard.AdminDashboardPath, h.handleAdmin)
	r.With(g.RequireRoles(api.RoleDonor)).Get(guard.DonorDashboardPath, h.handleDonor)
	r.With(g.RequireRoles(api.RoleCharity)).Get(guard.CharityDashboardPath, h.handleCharity)
}

type adminDashboard struct {
	Users          []api.UserSummary  `json:"users"`
	Donations      []api.Donation     `json:"donations"`
	WasteLogs      []api.WasteLog     `json:"waste_logs"`
	FoodCategories []api.FoodCategory `json:"food_categories"`
}

func (h *DashboardHandler) handleAdmin(w http.ResponseWriter, r *http.Request) {
	var dashboard adminDashboard

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		users, err := h.client.Users(ctx)
		dashboard.Users = users
		return err
	})
	g.Go(func() error {
		donations, err := h.client.Donations(ctx)
		dashboard.Donations = donations
		return err
	})
	g.Go(func() error {
		logs, err := h.client.WasteLogs(ctx)
		dashboard.WasteLogs = logs
		return err
	})
	g.Go(func() error {
		categories, err := h.client.FoodCategories(ctx)
		dashboard.FoodCategories = categories
		return err
	})

	if err := g.Wait(); err != nil {
		h.log.ErrorContext(r.Context(), "admin dashboard aggregation failed", "error", err)
		writeError(w, err, "Failed to load the admin dashboard.")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

type donorDashboard struct {
	Donations      []api.Donation     `json:"donations"`
	FoodCategories []api.FoodCategory `json:"food_categories"`
	// CanCreateDonations mirrors the account's verified status; unverified
	// donors see their donations but cannot create new ones.
	CanCreateDonations bool `json:"can_create_donations"`
}

func (h *DashboardHandler) handleDonor(w http.ResponseWriter, r *http.Request) {
	var dashboard donorDashboard

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		donations, err := h.client.Donations(ctx)
		dashboard.Donations = donations
		return err
	})
	g.Go(func() error {
		categories, err := h.client.FoodCategories(ctx)
		dashboard.FoodCategories = categories
		return err
	})

	if err := g.Wait(); err != nil {
		h.log.ErrorContext(r.Context(), "donor dashboard aggregation failed", "error", err)
		writeError(w, err, "Failed to load the donor dashboard.")
		return
	}

	if user := h.sessions.State().User; user != nil {
		dashboard.CanCreateDonations = user.IsVerified
	}
	writeJSON(w, http.StatusOK, dashboard)
}

type charityDashboard struct {
	Donations      []api.Donation     `json:"donations"`
	WasteLogs      []api.WasteLog     `json:"waste_logs"`
	FoodCategories []api.FoodCategory `json:"food_categories"`
}

func (h *DashboardHandler) handleCharity(w http.ResponseWriter, r *http.Request) {
	var dashboard charityDashboard

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		donations, err := h.client.Donations(ctx)
		dashboard.Donations = donations
		return err
	})
	g.Go(func() error {
		logs, err := h.client.WasteLogs(ctx)
		dashboard.WasteLogs = logs
		return err
	})
	g.Go(func() error {
		categories, err := h.client.FoodCategories(ctx)
		dashboard.FoodCategories = categories
		return err
	})

	if err := g.Wait(); err != nil {
		h.log.ErrorContext(r.Context(), "charity dashboard aggregation failed", "error", err)
		writeError(w, err, "Failed to load the charity dashboard.")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
