package handler

// RESPONSE HELPERS:
// Every JSON endpoint answers through writeJSON / writeError, and every page
// picks its status through statusFor, so one error always maps to one code.
//
// CONSISTENT ERROR FORMAT:
//   {"error": "not_found", "message": "prompt not found with id abc123", "field": ""}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/prompt-cards/internal/apperror"
)

// ErrorResponse is the error body of all JSON endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // machine-readable type, e.g. "not_found"
	Message string `json:"message"`         // human-readable description
	Field   string `json:"field,omitempty"` // offending input, for validation errors
}

// writeJSON sends data as JSON with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent, all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps a domain error to an HTTP status and a machine-readable type.
//
// ERROR MAPPING:
//
//	ErrValidation                  → 400 validation_error
//	ErrAuthFailure                 → 401 auth_failed
//	ErrForbidden                   → 403 forbidden
//	ErrNotFound, ErrStaleReference → 404 not_found
//	ErrDuplicateEmail, ErrConflict → 409 conflict
//	anything else                  → 500 internal_error
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrStorageUnavailable):
		return http.StatusInternalServerError, "internal_error"
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrAuthFailure):
		return http.StatusUnauthorized, "auth_failed"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrStaleReference):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrDuplicateEmail), errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// publicMessage is the text a client may see for err. Internal errors can
// carry file paths or SQL, so they get a generic line.
func publicMessage(err error) (message, field string) {
	status, _ := statusFor(err)
	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		return "An internal error occurred", ""
	}
	return appErr.Message, appErr.Field
}

// writeError maps a domain error to its status code and sends it as JSON.
func writeError(w http.ResponseWriter, err error) {
	status, errorType := statusFor(err)
	message, field := publicMessage(err)
	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: message,
		Field:   field,
	})
}
