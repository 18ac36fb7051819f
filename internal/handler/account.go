package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/service"
)

// AccountHandler owns the account lifecycle endpoints: linking, unlinking,
// opt-out and manual score entry.
type AccountHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewAccountHandler(svc *service.Service, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{svc: svc, logger: logger}
}

type linkRequest struct {
	DiscordID string `json:"discordId"`
	ApeKey    string `json:"apeKey"`
}

// HandleLink handles POST /api/accounts/link.
func (h *AccountHandler) HandleLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	account, err := h.svc.Link(r.Context(), req.DiscordID, req.ApeKey)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// HandleGet handles GET /api/accounts/{discordID}.
func (h *AccountHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.Account(r.Context(), chi.URLParam(r, "discordID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// HandleUnlink handles DELETE /api/accounts/{discordID}.
func (h *AccountHandler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Unlink(r.Context(), chi.URLParam(r, "discordID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type optOutRequest struct {
	OptOut bool `json:"optOut"`
}

// HandleOptOut handles POST /api/accounts/{discordID}/optout. The body
// carries the desired state, so the same endpoint opts back in.
func (h *AccountHandler) HandleOptOut(w http.ResponseWriter, r *http.Request) {
	var req optOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.svc.SetOptOut(r.Context(), chi.URLParam(r, "discordID"), req.OptOut); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type manualResultRequest struct {
	WPM       float64 `json:"wpm"`
	Accuracy  float64 `json:"acc"`
	Mode2     string  `json:"mode2"`
	Language  string  `json:"language"`
	Timestamp int64   `json:"timestamp"`
}

// HandleManualResult handles POST /api/accounts/{discordID}/results,
// recording an admin-entered score.
func (h *AccountHandler) HandleManualResult(w http.ResponseWriter, r *http.Request) {
	var req manualResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.svc.AddManualResult(r.Context(), chi.URLParam(r, "discordID"), model.Result{
		WPM:       req.WPM,
		Accuracy:  req.Accuracy,
		Mode2:     req.Mode2,
		Language:  req.Language,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}
