package apperror

import (
	"errors"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("account", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "InvalidKey wraps ErrInvalidKey",
			err:       InvalidKey("ape key is malformed"),
			target:    ErrInvalidKey,
			wantMatch: true,
		},
		{
			name:      "DuplicateLink wraps ErrDuplicateLink",
			err:       DuplicateLink("106511773581991936"),
			target:    ErrDuplicateLink,
			wantMatch: true,
		},
		{
			name:      "Upstream wraps ErrUpstream",
			err:       Upstream("fetching results", errors.New("timeout")),
			target:    ErrUpstream,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrInvalidKey",
			err:       NotFound("account", "abc123"),
			target:    ErrInvalidKey,
			wantMatch: false,
		},
		{
			name:      "InvalidKey does NOT match ErrUpstream",
			err:       InvalidKey("rejected by server"),
			target:    ErrUpstream,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("account", "abc123"),
			wantMessage: "account not found with id abc123",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("apeKey", "ape key is required"),
			wantMessage: "ape key is required",
		},
		{
			name:        "Upstream message includes cause",
			err:         Upstream("fetching results", errors.New("connection refused")),
			wantMessage: "fetching results: connection refused",
		},
		{
			name:        "Upstream without cause keeps message as-is",
			err:         Upstream("unexpected HTTP status 502", nil),
			wantMessage: "unexpected HTTP status 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := DuplicateLink("287702750366662658")
	if unwrapped := err.Unwrap(); unwrapped != ErrDuplicateLink {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrDuplicateLink)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("apeKey", "ape key must be 76 characters")
	if err.Field != "apeKey" {
		t.Errorf("Field = %q, want %q", err.Field, "apeKey")
	}
}
