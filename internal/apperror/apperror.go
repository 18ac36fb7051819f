package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation error")
	ErrInvalidKey    = errors.New("invalid ape key")
	ErrDuplicateLink = errors.New("duplicate link")
	ErrUpstream      = errors.New("upstream error")
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

// InvalidKey covers both a lexically malformed ApeKey (rejected before any
// network call is attempted) and a key the upstream service refuses
// (HTTP 471). Either way the user-facing advice is the same: check your key.
func InvalidKey(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidKey,
		Message: message,
	}
}

func DuplicateLink(discordID string) *AppError {
	return &AppError{
		Err:     ErrDuplicateLink,
		Message: fmt.Sprintf("discord user %s already has a linked account", discordID),
	}
}

// Upstream wraps a network/HTTP/parse failure while talking to the scoring
// API. Callers retry at the next scheduled sync, never immediately.
func Upstream(message string, cause error) *AppError {
	if cause != nil {
		message = fmt.Sprintf("%s: %v", message, cause)
	}
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
	}
}
