package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/prompt-cards/internal/apperror"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", apperror.ValidationFailed("prompt", "Please fill in all fields."), http.StatusBadRequest, "validation_error"},
		{"auth", apperror.AuthFailed(), http.StatusUnauthorized, "auth_failed"},
		{"forbidden", apperror.Forbidden("owner view only"), http.StatusForbidden, "forbidden"},
		{"not found", apperror.NotFound("prompt", "x"), http.StatusNotFound, "not_found"},
		{"stale", apperror.StaleReference("prompt", "x"), http.StatusNotFound, "not_found"},
		{"duplicate email", apperror.DuplicateEmail("a@b.c"), http.StatusConflict, "conflict"},
		{"conflict", apperror.Conflict("prompt", "x"), http.StatusConflict, "conflict"},
		{"storage", apperror.StorageUnavailable("prompts", errors.New("disk full")), http.StatusInternalServerError, "internal_error"},
		{"wrapped", fmt.Errorf("deleting: %w", apperror.NotFound("prompt", "x")), http.StatusNotFound, "not_found"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, errType := statusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantType, errType)
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, apperror.StorageUnavailable("prompts", errors.New("/var/lib/db: disk I/O error")))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "An internal error occurred", resp.Message)
	assert.NotContains(t, rr.Body.String(), "/var/lib/db")
}

func TestWriteError_CarriesField(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, apperror.ValidationFailed("aiName", "Please fill in all fields."))

	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "validation_error", resp.Error)
	assert.Equal(t, "aiName", resp.Field)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
}
