package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/ranking"
	"github.com/ctc-wpm/monkeyboard/internal/service"
)

// RankingHandler serves the standings endpoints.
type RankingHandler struct {
	svc    *service.Service
	logger *slog.Logger
	now    func() time.Time
}

func NewRankingHandler(svc *service.Service, logger *slog.Logger) *RankingHandler {
	return &RankingHandler{svc: svc, logger: logger, now: time.Now}
}

// parseWindow resolves the ?month=YYYY-MM query parameter into a ranking
// window, defaulting to the current month. Months are UTC.
func (h *RankingHandler) parseWindow(r *http.Request) (model.Window, error) {
	month := r.URL.Query().Get("month")
	if month == "" {
		return model.CurrentMonth(h.now().UTC()), nil
	}

	parsed, err := time.Parse("2006-01", month)
	if err != nil {
		return model.Window{}, apperror.ValidationFailed("month", "month must look like 2025-03")
	}
	return model.MonthWindow(parsed, 0), nil
}

// rankingEntryView is a RankingEntry decorated with display fields the
// bot renders directly.
type rankingEntryView struct {
	model.RankingEntry
	Category string `json:"category"`
	Delta    *int   `json:"delta,omitempty"`
}

func toViews(entries []model.RankingEntry) []rankingEntryView {
	views := make([]rankingEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, rankingEntryView{
			RankingEntry: e,
			Category:     ranking.CategoryLabel(e.Language),
			Delta:        ranking.Delta(e.WPM, e.PriorBestWPM),
		})
	}
	return views
}

// HandleRankings handles GET /api/rankings?month=YYYY-MM&compare=true.
// With compare set, each entry also carries the account's best from the
// reference month and the rounded wpm delta. compare=true references the
// preceding month; compare=YYYY-MM references an explicit one.
func (h *RankingHandler) HandleRankings(w http.ResponseWriter, r *http.Request) {
	window, err := h.parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var entries []model.RankingEntry
	switch compare := r.URL.Query().Get("compare"); compare {
	case "":
		entries, err = h.svc.RankFor(r.Context(), window)
	case "true":
		entries, err = h.svc.RankWithComparison(r.Context(), window, window.Previous())
	default:
		parsed, parseErr := time.Parse("2006-01", compare)
		if parseErr != nil {
			writeError(w, apperror.ValidationFailed("compare", "compare must be true or look like 2025-02"))
			return
		}
		entries, err = h.svc.RankWithComparison(r.Context(), window, model.MonthWindow(parsed, 0))
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":  window,
		"entries": toViews(entries),
	})
}

// HandleAccountRankings handles GET /api/accounts/{discordID}/rankings,
// one account's standings entries with comparison always attached.
func (h *RankingHandler) HandleAccountRankings(w http.ResponseWriter, r *http.Request) {
	window, err := h.parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, err := h.svc.PersonalRanking(r.Context(), chi.URLParam(r, "discordID"), window)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":  window,
		"entries": toViews(entries),
	})
}

// HandleRecords handles GET /api/rankings/records, the best wpm per
// category across all participants for the window.
func (h *RankingHandler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	window, err := h.parseWindow(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := h.svc.CategoryRecords(r.Context(), window)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"window":  window,
		"records": records,
	})
}
