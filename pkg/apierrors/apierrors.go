// Package apierrors defines the discriminated error vocabulary for failures
// returned by the remote FoodBridge API. A failure is either a structured
// response the server sent (detail message or per-field validation errors)
// or a connectivity failure where no response arrived at all. Services
// translate these into user-facing messages; nothing above this package
// inspects raw HTTP responses.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Code classifies a remote-API failure.
type Code string

const (
	// CodeUnauthorized covers HTTP 401 responses (bad credentials, expired token).
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden covers HTTP 403 responses.
	CodeForbidden Code = "forbidden"
	// CodeValidation covers HTTP 400 responses carrying per-field errors.
	CodeValidation Code = "validation"
	// CodeConnectivity means the request was sent but no response was received.
	CodeConnectivity Code = "connectivity"
	// CodeServer covers 5xx and any other unexpected server response.
	CodeServer Code = "server"
)

// Error is the discriminated remote-API failure. Exactly one of the two
// response variants is populated for server-sent failures: Detail for a
// structured detail message, FieldErrors for validation maps. Connectivity
// failures carry neither and wrap the transport error instead.
type Error struct {
	Code        Code
	Status      int // HTTP status; zero when no response was received
	Detail      string
	FieldErrors map[string][]string

	cause error
}

func (e *Error) Error() string {
	switch {
	case e.Code == CodeConnectivity && e.cause != nil:
		return fmt.Sprintf("api: no response: %v", e.cause)
	case e.Detail != "":
		return fmt.Sprintf("api: %d: %s", e.Status, e.Detail)
	case len(e.FieldErrors) > 0:
		return fmt.Sprintf("api: %d: %s", e.Status, strings.ReplaceAll(e.FlattenFields(), "\n", "; "))
	default:
		return fmt.Sprintf("api: %d: %s", e.Status, e.Code)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a server-sent failure with a detail message.
func New(code Code, status int, detail string) *Error {
	return &Error{Code: code, Status: status, Detail: detail}
}

// NewFieldErrors builds a validation failure from a field→messages map.
func NewFieldErrors(status int, fields map[string][]string) *Error {
	return &Error{Code: CodeValidation, Status: status, FieldErrors: fields}
}

// Connectivity wraps a transport error for which no HTTP response exists.
func Connectivity(cause error) *Error {
	return &Error{Code: CodeConnectivity, cause: cause}
}

// CodeForStatus maps an HTTP status to an error code.
func CodeForStatus(status int) Code {
	switch status {
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusBadRequest:
		return CodeValidation
	default:
		return CodeServer
	}
}

// Is reports whether err is an *Error carrying the given code.
func Is(err error, code Code) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// From extracts the *Error from an error chain.
func From(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// Field returns the messages for one field, joined with spaces, or "".
func (e *Error) Field(name string) string {
	msgs := e.FieldErrors[name]
	if len(msgs) == 0 {
		return ""
	}
	return strings.Join(msgs, " ")
}

// FlattenFields renders the field-errors map as "field: message" lines,
// one field per line, fields in lexical order for stable output.
func (e *Error) FlattenFields() string {
	if len(e.FieldErrors) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.FieldErrors))
	for name := range e.FieldErrors {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, strings.Join(e.FieldErrors[name], " ")))
	}
	return strings.Join(lines, "\n")
}
