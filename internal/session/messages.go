package session

import "foodbridge/pkg/apierrors"

// User-facing operation messages. The precedence applied to every failed
// operation: a connectivity failure always wins; otherwise a server detail
// message beats operation-specific field errors, which beat the operation's
// fixed generic message.
const (
	msgConnectivity       = "Unable to reach the server. Please check your connection and try again."
	msgInvalidCredentials = "Invalid email or password. Please try again."
	msgAccessDenied       = "Access denied. Your account may not have permission to sign in."
	msgLoginFailed        = "Login failed. Please try again."
	msgRegisterFailed     = "Registration failed. Please try again."
	msgUpdateFailed       = "Failed to update profile. Please try again."
	msgPasswordFailed     = "Failed to change password. Please try again."
)

// loginMessage maps a login failure. The 401 and 403 cases get fixed
// messages even when the server supplied a detail body, so credential
// failures always read the same way.
func loginMessage(err error) string {
	apiErr, ok := apierrors.From(err)
	if !ok {
		return msgLoginFailed
	}
	switch {
	case apiErr.Code == apierrors.CodeConnectivity:
		return msgConnectivity
	case apiErr.Code == apierrors.CodeUnauthorized:
		return msgInvalidCredentials
	case apiErr.Code == apierrors.CodeForbidden:
		return msgAccessDenied
	case apiErr.Detail != "":
		return apiErr.Detail
	case len(apiErr.FieldErrors) > 0:
		return apiErr.FlattenFields()
	default:
		return msgLoginFailed
	}
}

// registerMessage flattens server-side field validation ("field: message",
// one per line) when no detail message is present.
func registerMessage(err error) string {
	apiErr, ok := apierrors.From(err)
	if !ok {
		return msgRegisterFailed
	}
	switch {
	case apiErr.Code == apierrors.CodeConnectivity:
		return msgConnectivity
	case apiErr.Detail != "":
		return apiErr.Detail
	case len(apiErr.FieldErrors) > 0:
		return apiErr.FlattenFields()
	default:
		return msgRegisterFailed
	}
}

func updateProfileMessage(err error) string {
	apiErr, ok := apierrors.From(err)
	if !ok {
		return msgUpdateFailed
	}
	switch {
	case apiErr.Code == apierrors.CodeConnectivity:
		return msgConnectivity
	case apiErr.Detail != "":
		return apiErr.Detail
	default:
		return msgUpdateFailed
	}
}

// changePasswordMessage surfaces old/new password field errors by name.
func changePasswordMessage(err error) string {
	apiErr, ok := apierrors.From(err)
	if !ok {
		return msgPasswordFailed
	}
	switch {
	case apiErr.Code == apierrors.CodeConnectivity:
		return msgConnectivity
	case apiErr.Detail != "":
		return apiErr.Detail
	}
	if msg := apiErr.Field("old_password"); msg != "" {
		return msg
	}
	if msg := apiErr.Field("new_password"); msg != "" {
		return msg
	}
	return msgPasswordFailed
}
