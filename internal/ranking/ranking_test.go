package ranking

import (
	"testing"
	"time"

	"github.com/ctc-wpm/monkeyboard/internal/model"
)

var window = model.MonthWindow(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 0)

func eligibleResult(id, uid, language string, wpm float64) model.Result {
	mode2 := "50"
	if language == model.LangFrench600k || language == model.LangEnglish450k {
		mode2 = "25"
	}
	return model.Result{
		ID:        id,
		UID:       uid,
		WPM:       wpm,
		Accuracy:  97.0,
		Mode:      model.ModeWords,
		Mode2:     mode2,
		Timestamp: window.Start.Unix() + 3600,
		Language:  language,
	}
}

func TestEligible(t *testing.T) {
	base := eligibleResult("r", "u", model.LangFrench, 80)

	tests := []struct {
		name   string
		mutate func(*model.Result)
		want   bool
	}{
		{"baseline french 50", func(r *model.Result) {}, true},
		{"default english 50", func(r *model.Result) {
			r.Language = model.LangDefault
		}, true},
		{"french_600k 25", func(r *model.Result) {
			r.Language = model.LangFrench600k
			r.Mode2 = "25"
		}, true},
		{"english_450k 25", func(r *model.Result) {
			r.Language = model.LangEnglish450k
			r.Mode2 = "25"
		}, true},
		{"accuracy exactly at floor", func(r *model.Result) {
			r.Accuracy = MinAccuracy
		}, true},
		{"accuracy below floor", func(r *model.Result) {
			r.Accuracy = 95.49
		}, false},
		{"time mode", func(r *model.Result) {
			r.Mode = "time"
			r.Mode2 = "60"
		}, false},
		{"french at 25 words", func(r *model.Result) {
			r.Mode2 = "25"
		}, false},
		{"french_600k at 50 words", func(r *model.Result) {
			r.Language = model.LangFrench600k
		}, false},
		{"lazy mode", func(r *model.Result) {
			r.LazyMode = true
		}, false},
		{"unrelated language", func(r *model.Result) {
			r.Language = "spanish"
		}, false},
		{"before window", func(r *model.Result) {
			r.Timestamp = window.Start.Unix() - 1
		}, false},
		{"at window start", func(r *model.Result) {
			r.Timestamp = window.Start.Unix()
		}, true},
		{"at window end", func(r *model.Result) {
			r.Timestamp = window.End.Unix()
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base
			tt.mutate(&r)
			if got := Eligible(r, window); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBestPerAccount(t *testing.T) {
	results := []model.Result{
		eligibleResult("r1", "alice", model.LangFrench, 80),
		eligibleResult("r2", "alice", model.LangFrench, 92),
		eligibleResult("r3", "alice", model.LangDefault, 85),
		eligibleResult("r4", "bob", model.LangFrench, 88),
	}
	// Ineligible rows never displace a best.
	slow := eligibleResult("r5", "alice", model.LangFrench, 120)
	slow.Accuracy = 90
	results = append(results, slow)

	bests := BestPerAccount(results, window)

	if len(bests) != 2 {
		t.Fatalf("got bests for %d accounts, want 2", len(bests))
	}
	if got := bests["alice"][model.LangFrench]; got.ID != "r2" {
		t.Errorf("alice french best = %s, want r2", got.ID)
	}
	if got := bests["alice"][model.LangDefault]; got.ID != "r3" {
		t.Errorf("alice default best = %s, want r3", got.ID)
	}
	if got := bests["bob"][model.LangFrench]; got.ID != "r4" {
		t.Errorf("bob french best = %s, want r4", got.ID)
	}
}

func TestBestPerAccount_TieBreak(t *testing.T) {
	early := eligibleResult("r-late-id", "alice", model.LangFrench, 90)
	late := eligibleResult("r-early-id", "alice", model.LangFrench, 90)
	late.Timestamp = early.Timestamp + 100

	// The earlier result keeps the spot regardless of input order.
	for name, ordered := range map[string][]model.Result{
		"early first": {early, late},
		"late first":  {late, early},
	} {
		bests := BestPerAccount(ordered, window)
		if got := bests["alice"][model.LangFrench]; got.ID != early.ID {
			t.Errorf("%s: best = %s, want %s", name, got.ID, early.ID)
		}
	}
}

func TestBestWPMByCategory(t *testing.T) {
	results := []model.Result{
		eligibleResult("r1", "alice", model.LangFrench, 92),
		eligibleResult("r2", "bob", model.LangFrench, 95),
		eligibleResult("r3", "bob", model.LangEnglish450k, 70),
	}

	bests := BestWPMByCategory(results, window)

	if bests[model.LangFrench] != 95 {
		t.Errorf("french best = %v, want 95", bests[model.LangFrench])
	}
	if bests[model.LangEnglish450k] != 70 {
		t.Errorf("english_450k best = %v, want 70", bests[model.LangEnglish450k])
	}
	if _, ok := bests[model.LangDefault]; ok {
		t.Error("default category should be absent with no eligible results")
	}
}

func TestDelta(t *testing.T) {
	prior := 90.4

	if d := Delta(92.6, &prior); d == nil || *d != 3 {
		t.Errorf("Delta(92.6, 90.4) = %v, want 3 (rounded wpm difference)", d)
	}
	if d := Delta(89.7, &prior); d == nil || *d != 0 {
		t.Errorf("Delta(89.7, 90.4) = %v, want 0", d)
	}
	if d := Delta(85.0, &prior); d == nil || *d != -5 {
		t.Errorf("Delta(85.0, 90.4) = %v, want -5", d)
	}
	if d := Delta(100, nil); d != nil {
		t.Errorf("Delta with no prior = %v, want nil", d)
	}
}

func TestSortEntries(t *testing.T) {
	entries := []model.RankingEntry{
		{UID: "c", Language: model.LangDefault, WPM: 99},
		{UID: "a", Language: model.LangFrench, WPM: 80},
		{UID: "b", Language: model.LangFrench, WPM: 95},
		{UID: "d", Language: model.LangEnglish450k, WPM: 120},
		{UID: "e", Language: model.LangFrench600k, WPM: 60},
	}

	SortEntries(entries)

	wantOrder := []string{"b", "a", "e", "c", "d"}
	for i, want := range wantOrder {
		if entries[i].UID != want {
			t.Fatalf("position %d = %s, want %s (order: french, french_600k, english, english_450k; wpm desc)",
				i, entries[i].UID, want)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryLabel(model.LangDefault); got != "english" {
		t.Errorf("CategoryLabel(default) = %q, want english", got)
	}
	if got := CategoryLabel(model.LangFrench); got != model.LangFrench {
		t.Errorf("CategoryLabel(french) = %q", got)
	}
}
