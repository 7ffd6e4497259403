// Package httputil centralizes the JSON error envelope so every handler
// translates domain errors the same way.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "sgea/pkg/domain-errors"
)

// statusByCode maps domain error codes to HTTP statuses. Workflow outcomes
// (capacity, deadline, duplicates) are client errors, never 500s.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeInvalidInput:       http.StatusBadRequest,
	dErrors.CodeBadRequest:         http.StatusBadRequest,
	dErrors.CodeValidation:         http.StatusUnprocessableEntity,
	dErrors.CodeUnauthorized:       http.StatusUnauthorized,
	dErrors.CodeForbidden:          http.StatusForbidden,
	dErrors.CodeNotFound:           http.StatusNotFound,
	dErrors.CodeConflict:           http.StatusConflict,
	dErrors.CodeInvariantViolation: http.StatusUnprocessableEntity,
	dErrors.CodeRegistrationClosed: http.StatusConflict,
	dErrors.CodeCapacityExceeded:   http.StatusConflict,
	dErrors.CodeAlreadyRegistered:  http.StatusConflict,
	dErrors.CodeNotOwner:           http.StatusForbidden,
	dErrors.CodeEventNotFinished:   http.StatusConflict,
	dErrors.CodeInternal:           http.StatusInternalServerError,
}

// WriteError renders err as the standard JSON error envelope. Internal errors
// omit the description so storage details never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
		code = dErrors.CodeInternal
	}

	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
