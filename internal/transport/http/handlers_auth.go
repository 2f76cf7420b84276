package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"foodbridge/internal/api"
	"foodbridge/internal/session"
	"foodbridge/pkg/requestcontext"
)

// AuthHandler is the thin HTTP layer over the session manager. It delegates
// every decision to the session operations; failure messages come back out
// of session state, never mapped here.
type AuthHandler struct {
	sessions *session.Manager
	log      *slog.Logger
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(sessions *session.Manager, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &AuthHandler{sessions: sessions, log: log}
}

// Register mounts the auth routes.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/register", h.handleRegister)
	r.Get("/me", h.handleMe)
	r.Put("/me/profile", h.handleUpdateProfile)
	r.Post("/me/password", h.handleChangePassword)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_body",
			"message": "request body must be JSON with email and password",
		})
		return
	}

	if err := h.sessions.Login(r.Context(), req.Email, req.Password); err != nil {
		h.log.WarnContext(r.Context(), "login failed",
			"email", req.Email,
			"device", requestcontext.DeviceLabel(r.Context()),
			"client_ip", requestcontext.ClientIP(r.Context()),
			"error", err,
		)
		writeError(w, err, h.sessions.State().Error)
		return
	}

	writeJSON(w, http.StatusOK, viewOf(h.sessions.State()))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout()
	writeJSON(w, http.StatusOK, viewOf(h.sessions.State()))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input api.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_body",
			"message": "request body must be a JSON registration payload",
		})
		return
	}

	if err := h.sessions.Register(r.Context(), input); err != nil {
		writeError(w, err, h.sessions.State().Error)
		return
	}

	// Registration does not log the account in; the session is unchanged.
	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewOf(h.sessions.State()))
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input api.UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_body",
			"message": "request body must be a JSON profile payload",
		})
		return
	}

	if err := h.sessions.UpdateProfile(r.Context(), input); err != nil {
		writeError(w, err, h.sessions.State().Error)
		return
	}

	writeJSON(w, http.StatusOK, viewOf(h.sessions.State()))
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":   "invalid_body",
			"message": "request body must be JSON with old_password and new_password",
		})
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err, h.sessions.State().Error)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}
