package session

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"foodbridge/pkg/apierrors"
)

func TestLoginMessagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "connectivity beats everything",
			err:  apierrors.Connectivity(errors.New("dial tcp: connection refused")),
			want: msgConnectivity,
		},
		{
			name: "401 gets the fixed message even with a server detail",
			err:  apierrors.New(apierrors.CodeUnauthorized, http.StatusUnauthorized, "No active account found"),
			want: msgInvalidCredentials,
		},
		{
			name: "403 maps to access denied",
			err:  apierrors.New(apierrors.CodeForbidden, http.StatusForbidden, "Account suspended"),
			want: msgAccessDenied,
		},
		{
			name: "server detail when present",
			err:  apierrors.New(apierrors.CodeValidation, http.StatusBadRequest, "Email field is required"),
			want: "Email field is required",
		},
		{
			name: "field errors when no detail",
			err:  apierrors.NewFieldErrors(http.StatusBadRequest, map[string][]string{"email": {"invalid format"}}),
			want: "email: invalid format",
		},
		{
			name: "generic fallback",
			err:  errors.New("boom"),
			want: msgLoginFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, loginMessage(tt.err))
		})
	}
}

func TestChangePasswordMessageFieldOrder(t *testing.T) {
	err := apierrors.NewFieldErrors(http.StatusBadRequest, map[string][]string{
		"old_password": {"Wrong password."},
		"new_password": {"Too short."},
	})
	assert.Equal(t, "Wrong password.", changePasswordMessage(err))

	err = apierrors.NewFieldErrors(http.StatusBadRequest, map[string][]string{
		"new_password": {"Too short."},
	})
	assert.Equal(t, "Too short.", changePasswordMessage(err))
}

func TestRegisterMessageFlattensSortedFields(t *testing.T) {
	err := apierrors.NewFieldErrors(http.StatusBadRequest, map[string][]string{
		"email":      {"already exists"},
		"first_name": {"This field is required."},
	})
	assert.Equal(t, "email: already exists\nfirst_name: This field is required.", registerMessage(err))
}
