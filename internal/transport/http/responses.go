package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"foodbridge/internal/api"
	"foodbridge/internal/session"
	"foodbridge/pkg/apierrors"
)

// sessionView is the session snapshot as the gateway reports it. Tokens are
// never included: they stay between the credential store and the transport.
type sessionView struct {
	Status          session.Status `json:"status"`
	IsAuthenticated bool           `json:"is_authenticated"`
	IsLoading       bool           `json:"is_loading"`
	Error           string         `json:"error,omitempty"`
	User            *api.User      `json:"user,omitempty"`
	TokenExpiresAt  *time.Time     `json:"token_expires_at,omitempty"`
}

func viewOf(state session.State) sessionView {
	view := sessionView{
		Status:          state.Status,
		IsAuthenticated: state.IsAuthenticated,
		IsLoading:       state.IsLoading,
		Error:           state.Error,
		User:            state.User,
	}
	if !state.TokenExpiry.IsZero() {
		expiry := state.TokenExpiry
		view.TokenExpiresAt = &expiry
	}
	return view
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError centralizes error translation to HTTP responses so every
// failure leaves the gateway in the same JSON envelope. message is the
// already-mapped user-facing text from session state.
func writeError(w http.ResponseWriter, err error, message string) {
	status := http.StatusInternalServerError
	code := "internal"

	if apiErr, ok := apierrors.From(err); ok {
		code = string(apiErr.Code)
		switch {
		case apiErr.Code == apierrors.CodeConnectivity:
			status = http.StatusBadGateway
		case apiErr.Status > 0:
			status = apiErr.Status
		}
	}

	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
