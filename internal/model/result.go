package model

// Language categories that participate in ranking. The empty string is
// Monkeytype's default (English) corpus; it arrives as a missing/null
// language field and is stored that way.
const (
	LangDefault     = ""
	LangFrench      = "french"
	LangFrench600k  = "french_600k"
	LangEnglish450k = "english_450k"
)

// ModeWords is the only test mode eligible for ranking.
const ModeWords = "words"

// Result is one completed typing test.
//
// ID is assigned by Monkeytype and globally unique across all accounts;
// synthesized entries carry a generated id with a marking prefix ("manual-"
// for admin-entered scores, "tagpb-" for tag personal bests) so they are
// recognizable as non-organic. Timestamp is Unix seconds; the upstream API
// reports milliseconds, kept verbatim in TimestampMs because the sync floor
// compares milliseconds upstream. Flooring on a second-truncated value would
// re-fetch the boundary result on every pass.
//
// Optional upstream fields keep their zero value when absent; the storage
// layer writes them as nullable columns so old rows survive additive schema
// changes.
type Result struct {
	ID                    string   `json:"id"                    db:"id"`
	UID                   string   `json:"uid"                   db:"uid"`
	WPM                   float64  `json:"wpm"                   db:"wpm"`
	RawWPM                float64  `json:"rawWpm"                db:"raw_wpm"`
	CharStats             []int64  `json:"charStats"             db:"char_stats"`
	Accuracy              float64  `json:"acc"                   db:"acc"`
	Mode                  string   `json:"mode"                  db:"mode"`
	Mode2                 string   `json:"mode2"                 db:"mode2"`
	QuoteLength           int64    `json:"quoteLength"           db:"quote_length"`
	Timestamp             int64    `json:"timestamp"             db:"timestamp"`
	TimestampMs           int64    `json:"timestampMs,omitempty" db:"timestamp_ms"`
	RestartCount          int64    `json:"restartCount"          db:"restart_count"`
	IncompleteTestSeconds float64  `json:"incompleteTestSeconds" db:"incomplete_test_seconds"`
	AFKDuration           float64  `json:"afkDuration"           db:"afk_duration"`
	TestDuration          float64  `json:"testDuration"          db:"test_duration"`
	TagIDs                []string `json:"tags"                  db:"tags"`
	Consistency           float64  `json:"consistency"           db:"consistency"`
	KeyConsistency        float64  `json:"keyConsistency"        db:"key_consistency"`
	Language              string   `json:"language"              db:"language"`
	BailedOut             bool     `json:"bailedOut"             db:"bailed_out"`
	BlindMode             bool     `json:"blindMode"             db:"blind_mode"`
	LazyMode              bool     `json:"lazyMode"              db:"lazy_mode"`
	Funbox                []string `json:"funbox"                db:"funbox"`
	Difficulty            string   `json:"difficulty"            db:"difficulty"`
	Numbers               bool     `json:"numbers"               db:"numbers"`
	Punctuation           bool     `json:"punctuation"           db:"punctuation"`
	IsPersonalBest        bool     `json:"isPb"                  db:"is_pb"`
}

// RankingEntry is the derived best-eligible result for one account in one
// language category within a window. Not persisted, recomputed per request.
//
// PriorBestWPM is the account's best eligible wpm in the same category
// during the reference period, nil when no such result exists. The
// presentation layer turns (WPM, PriorBestWPM) into a directional delta;
// a nil prior means "no delta shown", never zero.
type RankingEntry struct {
	UID            string   `json:"uid"`
	Name           string   `json:"name"`
	DiscordID      string   `json:"discordId"`
	WPM            float64  `json:"wpm"`
	Accuracy       float64  `json:"acc"`
	Language       string   `json:"language"`
	IsPersonalBest bool     `json:"isPb"`
	Timestamp      int64    `json:"timestamp"`
	TagNames       string   `json:"tagNames,omitempty"`
	PriorBestWPM   *float64 `json:"priorBestWpm,omitempty"`
}
