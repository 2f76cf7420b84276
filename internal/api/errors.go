package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"foodbridge/pkg/apierrors"
)

// maxErrorBody bounds how much of an error response is read; anything
// larger is not a structured error body worth parsing.
const maxErrorBody = 64 << 10

// decodeError turns a non-2xx response into a discriminated *apierrors.Error.
// The server speaks two shapes: {"detail": "..."} for single-message failures
// and {"field": ["msg", ...], ...} for validation failures. Anything
// unparseable falls back to a bare status-coded error.
func decodeError(resp *http.Response) *apierrors.Error {
	code := apierrors.CodeForStatus(resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apierrors.New(code, resp.StatusCode, "")
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return apierrors.New(code, resp.StatusCode, "")
	}

	if rawDetail, ok := body["detail"]; ok {
		var detail string
		if err := json.Unmarshal(rawDetail, &detail); err == nil && detail != "" {
			return apierrors.New(code, resp.StatusCode, detail)
		}
	}

	fields := make(map[string][]string, len(body))
	for name, rawValue := range body {
		if msgs := decodeFieldMessages(rawValue); len(msgs) > 0 {
			fields[name] = msgs
		}
	}
	if len(fields) > 0 {
		return &apierrors.Error{Code: code, Status: resp.StatusCode, FieldErrors: fields}
	}

	return apierrors.New(code, resp.StatusCode, "")
}

// decodeFieldMessages accepts both "msg" and ["msg", ...] value shapes.
func decodeFieldMessages(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single == "" {
			return nil
		}
		return []string{single}
	}

	var many []any
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil
	}
	msgs := make([]string, 0, len(many))
	for _, v := range many {
		if s, ok := v.(string); ok && s != "" {
			msgs = append(msgs, s)
		} else if v != nil {
			msgs = append(msgs, fmt.Sprint(v))
		}
	}
	return msgs
}
