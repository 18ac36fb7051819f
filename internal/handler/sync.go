package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ctc-wpm/monkeyboard/internal/service"
)

// SyncHandler exposes manual sync triggers. The scheduler covers the
// steady state; these endpoints exist for admins who do not want to wait.
type SyncHandler struct {
	svc    *service.Service
	logger *slog.Logger
}

func NewSyncHandler(svc *service.Service, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, logger: logger}
}

// HandleSyncAll handles POST /api/sync, a full pass over every account.
// ?includeOptedOut=false restricts the pass to ranked participants.
func (h *SyncHandler) HandleSyncAll(w http.ResponseWriter, r *http.Request) {
	includeOptedOut := r.URL.Query().Get("includeOptedOut") != "false"

	summary, err := h.svc.SyncAll(r.Context(), includeOptedOut)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type syncAccountResponse struct {
	ResultsAdded int `json:"resultsAdded"`
}

// HandleSyncAccount handles POST /api/accounts/{discordID}/sync.
func (h *SyncHandler) HandleSyncAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.Account(r.Context(), chi.URLParam(r, "discordID"))
	if err != nil {
		writeError(w, err)
		return
	}

	added, err := h.svc.SyncAccount(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncAccountResponse{ResultsAdded: added})
}
