package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEmail     = errors.New("duplicate email")
	ErrAuthFailure        = errors.New("authentication failed")
	ErrStaleReference     = errors.New("stale reference")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// DuplicateEmail is returned by signup when the email is already registered.
func DuplicateEmail(email string) *AppError {
	return &AppError{
		Err:     ErrDuplicateEmail,
		Message: "Email already in use",
		Field:   "email",
	}
}

// AuthFailed is returned when no account matches the credentials.
// The message is deliberately the same whether or not the email exists.
func AuthFailed() *AppError {
	return &AppError{
		Err:     ErrAuthFailure,
		Message: "Invalid email or password",
	}
}

// StaleReference describes a persisted reference whose target no longer exists.
// Session resolution logs it and degrades to legacy mode instead of failing.
func StaleReference(resource, id string) *AppError {
	return &AppError{
		Err:     ErrStaleReference,
		Message: fmt.Sprintf("%s %s no longer exists", resource, id),
	}
}

// StorageUnavailable wraps a failure of the underlying blob storage.
func StorageUnavailable(key string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrStorageUnavailable, cause),
		Message: fmt.Sprintf("storage unavailable for %s", key),
	}
}
