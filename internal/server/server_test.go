package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctc-wpm/monkeyboard/internal/config"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.New()
	cfg.DBPath = ":memory:"
	cfg.SyncInterval = 0

	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"rankings empty", http.MethodGet, "/api/rankings", "", http.StatusOK},
		{"rankings explicit month", http.MethodGet, "/api/rankings?month=2025-03", "", http.StatusOK},
		{"rankings bad month", http.MethodGet, "/api/rankings?month=March", "", http.StatusBadRequest},
		{"records", http.MethodGet, "/api/rankings/records", "", http.StatusOK},
		{"unknown account", http.MethodGet, "/api/accounts/ghost", "", http.StatusNotFound},
		{"unlink unknown", http.MethodDelete, "/api/accounts/ghost", "", http.StatusNotFound},
		{"link bad body", http.MethodPost, "/api/accounts/link", "{not json", http.StatusBadRequest},
		{"link bad key", http.MethodPost, "/api/accounts/link",
			`{"discordId":"d1","apeKey":"too-short"}`, http.StatusBadRequest},
		{"sync all empty", http.MethodPost, "/api/sync", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}

			req := httptest.NewRequest(tt.method, tt.path, body)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, "body: %s", rec.Body.String())
		})
	}
}

func TestRankingsShape(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rankings?month=2025-03&compare=true", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Window struct {
			Start string `json:"start"`
			End   string `json:"end"`
		} `json:"window"`
		Entries []any `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.True(t, strings.HasPrefix(payload.Window.Start, "2025-03-01"))
	assert.True(t, strings.HasPrefix(payload.Window.End, "2025-04-01"))
	assert.Empty(t, payload.Entries)
}
