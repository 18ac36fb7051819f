package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"validation", apperror.ValidationFailed("wpm", "wpm must be positive"), http.StatusBadRequest, "validation_error"},
		{"invalid key", apperror.InvalidKey("ape key is malformed"), http.StatusBadRequest, "invalid_key"},
		{"not found", apperror.NotFound("account", "discord-1"), http.StatusNotFound, "not_found"},
		{"duplicate link", apperror.DuplicateLink("discord-1"), http.StatusConflict, "duplicate_link"},
		{"upstream", apperror.Upstream("scoring API unavailable", nil), http.StatusBadGateway, "upstream_error"},
		{"wrapped", fmt.Errorf("linking account: %w", apperror.NotFound("account", "x")), http.StatusNotFound, "not_found"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body.Error != tt.wantType {
				t.Errorf("error type = %q, want %q", body.Error, tt.wantType)
			}
			if tt.name == "unknown" && body.Message != "An internal error occurred" {
				t.Errorf("unknown errors must not leak details, got %q", body.Message)
			}
		})
	}
}
