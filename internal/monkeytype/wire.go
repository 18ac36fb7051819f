package monkeytype

import (
	"bytes"
	"encoding/json"

	"github.com/ctc-wpm/monkeyboard/internal/model"
)

// flexString decodes a JSON value that the API serves sometimes as a string
// and sometimes as a bare number. Old results carry mode2 as 50, newer ones
// as "50".
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

// flexStrings decodes a funbox field that is either a list of names or a
// single comma-joined string. "none" means no funbox at all.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if data[0] == '[' {
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" || s == "none" {
		*f = nil
		return nil
	}
	*f = splitFunbox(s)
	return nil
}

func splitFunbox(s string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '#' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// wireResult is one result as the API serves it. Timestamps are in
// milliseconds and some fields switched representation over the years, so
// decoding and normalization stay here instead of leaking into model.
type wireResult struct {
	ID                    string      `json:"_id"`
	UID                   string      `json:"uid"`
	WPM                   float64     `json:"wpm"`
	RawWPM                float64     `json:"rawWpm"`
	CharStats             []int64     `json:"charStats"`
	Accuracy              float64     `json:"acc"`
	Mode                  string      `json:"mode"`
	Mode2                 flexString  `json:"mode2"`
	QuoteLength           int64       `json:"quoteLength"`
	Timestamp             int64       `json:"timestamp"`
	RestartCount          int64       `json:"restartCount"`
	IncompleteTestSeconds float64     `json:"incompleteTestSeconds"`
	AFKDuration           float64     `json:"afkDuration"`
	TestDuration          float64     `json:"testDuration"`
	Tags                  []string    `json:"tags"`
	Consistency           float64     `json:"consistency"`
	KeyConsistency        float64     `json:"keyConsistency"`
	Language              string      `json:"language"`
	BailedOut             bool        `json:"bailedOut"`
	BlindMode             bool        `json:"blindMode"`
	LazyMode              bool        `json:"lazyMode"`
	Funbox                flexStrings `json:"funbox"`
	Difficulty            string      `json:"difficulty"`
	Numbers               bool        `json:"numbers"`
	Punctuation           bool        `json:"punctuation"`
	IsPersonalBest        bool        `json:"isPb"`
}

func (w wireResult) toModel() model.Result {
	return model.Result{
		ID:                    w.ID,
		UID:                   w.UID,
		WPM:                   w.WPM,
		RawWPM:                w.RawWPM,
		CharStats:             w.CharStats,
		Accuracy:              w.Accuracy,
		Mode:                  w.Mode,
		Mode2:                 string(w.Mode2),
		QuoteLength:           w.QuoteLength,
		Timestamp:             w.Timestamp / 1000,
		TimestampMs:           w.Timestamp,
		RestartCount:          w.RestartCount,
		IncompleteTestSeconds: w.IncompleteTestSeconds,
		AFKDuration:           w.AFKDuration,
		TestDuration:          w.TestDuration,
		TagIDs:                w.Tags,
		Consistency:           w.Consistency,
		KeyConsistency:        w.KeyConsistency,
		Language:              normalizeLanguage(w.Language),
		BailedOut:             w.BailedOut,
		BlindMode:             w.BlindMode,
		LazyMode:              w.LazyMode,
		Funbox:                w.Funbox,
		Difficulty:            w.Difficulty,
		Numbers:               w.Numbers,
		Punctuation:           w.Punctuation,
		IsPersonalBest:        w.IsPersonalBest,
	}
}

// normalizeLanguage maps the API's explicit "english" to the default corpus,
// which the rest of the system represents as the empty string.
func normalizeLanguage(language string) string {
	if language == "english" {
		return model.LangDefault
	}
	return language
}

// wireTag is one tag as served by /users/tags, including the per-tag
// personal bests keyed by mode then mode2.
type wireTag struct {
	ID            string                              `json:"_id"`
	Name          string                              `json:"name"`
	PersonalBests map[string]map[string][]wireTagBest `json:"personalBests"`
}

type wireTagBest struct {
	Accuracy    float64    `json:"acc"`
	Consistency float64    `json:"consistency"`
	Difficulty  string     `json:"difficulty"`
	LazyMode    bool       `json:"lazyMode"`
	Language    string     `json:"language"`
	Punctuation bool       `json:"punctuation"`
	Numbers     bool       `json:"numbers"`
	RawWPM      float64    `json:"raw"`
	WPM         float64    `json:"wpm"`
	Timestamp   int64      `json:"timestamp"`
	Mode2       flexString `json:"wordCount"`
}

func (t wireTag) toModel() model.TagWithBests {
	out := model.TagWithBests{
		Tag: model.Tag{ID: t.ID, Name: t.Name},
	}
	for mode, byMode2 := range t.PersonalBests {
		for mode2, bests := range byMode2 {
			for _, b := range bests {
				out.Bests = append(out.Bests, b.toModel(t.ID, mode, mode2))
			}
		}
	}
	return out
}

// toModel turns a personal best into a result skeleton carrying the tag.
// The id is left blank; the sync layer assigns one when it stores the row.
func (b wireTagBest) toModel(tagID, mode, mode2 string) model.Result {
	if m2 := string(b.Mode2); m2 != "" {
		mode2 = m2
	}
	return model.Result{
		WPM:            b.WPM,
		RawWPM:         b.RawWPM,
		Accuracy:       b.Accuracy,
		Mode:           mode,
		Mode2:          mode2,
		Timestamp:      b.Timestamp / 1000,
		TimestampMs:    b.Timestamp,
		TagIDs:         []string{tagID},
		Consistency:    b.Consistency,
		Language:       normalizeLanguage(b.Language),
		LazyMode:       b.LazyMode,
		Difficulty:     b.Difficulty,
		Numbers:        b.Numbers,
		Punctuation:    b.Punctuation,
		IsPersonalBest: true,
	}
}
