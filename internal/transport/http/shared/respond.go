// Package shared holds the JSON envelope helpers every handler uses, so
// success and error responses look the same across the API surface.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "tradematch/pkg/domain-errors"
)

// RespondJSON writes v as the JSON response body with the given status.
func RespondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the error envelope: a stable machine code plus a
// human-readable message.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError translates a domain error into its HTTP response. Non-domain
// errors map to 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := ErrorBody{Error: string(code)}
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		body.Message = de.Message
	}
	RespondJSON(w, dErrors.ToHTTPStatus(code), body)
}
