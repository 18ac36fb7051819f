// Package ranking holds the competition rules: which results count, how a
// best score is chosen per language category, and how standings are ordered.
// Storage only filters by time window; everything judgemental lives here so
// the rules exist in exactly one place.
package ranking

import (
	"math"
	"sort"

	"github.com/ctc-wpm/monkeyboard/internal/model"
)

// Categories lists the competition language categories in display order.
// The empty string is the default English corpus.
var Categories = []string{
	model.LangFrench,
	model.LangFrench600k,
	model.LangDefault,
	model.LangEnglish450k,
}

// MinAccuracy is the accuracy floor below which a result never counts.
const MinAccuracy = 95.5

// CategoryIndex returns the display position of a language, or -1 when the
// language is not a competition category.
func CategoryIndex(language string) int {
	for i, c := range Categories {
		if c == language {
			return i
		}
	}
	return -1
}

// CategoryLabel is the human name shown for a category.
func CategoryLabel(language string) string {
	if language == model.LangDefault {
		return "english"
	}
	return language
}

// Eligible reports whether a result counts toward the standings for the
// window. Word counts pair with corpora: the 200-word corpora (french and
// default English) race over 50 words, the large 600k/450k corpora over 25.
func Eligible(r model.Result, w model.Window) bool {
	if r.Accuracy < MinAccuracy {
		return false
	}
	if r.Mode != model.ModeWords {
		return false
	}
	if r.LazyMode {
		return false
	}
	if !w.Contains(r.Timestamp) {
		return false
	}

	switch r.Language {
	case model.LangDefault, model.LangFrench:
		return r.Mode2 == "50"
	case model.LangFrench600k, model.LangEnglish450k:
		return r.Mode2 == "25"
	default:
		return false
	}
}

// beats reports whether a should replace b as a best score. Higher wpm
// wins; on equal wpm the earlier result keeps the spot, with the id as a
// final deterministic tie-break.
func beats(a, b model.Result) bool {
	if a.WPM != b.WPM {
		return a.WPM > b.WPM
	}
	if a.Timestamp != b.Timestamp {
		return a.Timestamp < b.Timestamp
	}
	return a.ID < b.ID
}

// BestPerAccount reduces window results to each account's best eligible
// score per category, keyed uid then language.
func BestPerAccount(results []model.Result, w model.Window) map[string]map[string]model.Result {
	bests := make(map[string]map[string]model.Result)
	for _, r := range results {
		if !Eligible(r, w) {
			continue
		}
		byLang, ok := bests[r.UID]
		if !ok {
			byLang = make(map[string]model.Result)
			bests[r.UID] = byLang
		}
		current, ok := byLang[r.Language]
		if !ok || beats(r, current) {
			byLang[r.Language] = r
		}
	}
	return bests
}

// BestWPMByCategory reduces window results to the single best wpm seen in
// each category across all accounts. Used as the comparison baseline when
// ranking one period against another.
func BestWPMByCategory(results []model.Result, w model.Window) map[string]float64 {
	bests := make(map[string]float64)
	for _, r := range results {
		if !Eligible(r, w) {
			continue
		}
		if current, ok := bests[r.Language]; !ok || r.WPM > current {
			bests[r.Language] = r.WPM
		}
	}
	return bests
}

// Delta is the displayed gap between a score and a prior best, computed on
// rounded wpm so it matches what readers see. A nil prior means the
// category had no earlier score and yields no delta.
func Delta(wpm float64, prior *float64) *int {
	if prior == nil {
		return nil
	}
	d := int(math.Round(wpm)) - int(math.Round(*prior))
	return &d
}

// SortEntries orders standings for display: category order first, then wpm
// descending, then earlier timestamp, then uid as a final stable key.
func SortEntries(entries []model.RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Language != b.Language {
			return CategoryIndex(a.Language) < CategoryIndex(b.Language)
		}
		if a.WPM != b.WPM {
			return a.WPM > b.WPM
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return a.UID < b.UID
	})
}
