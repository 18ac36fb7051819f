package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/repository"
)

var _ repository.ResultRepository = (*DB)(nil)

const resultColumns = `id, uid, wpm, raw_wpm, char_stats, acc, mode, mode2,
	quote_length, timestamp, timestamp_ms, restart_count,
	incomplete_test_seconds, afk_duration, test_duration, tags, consistency,
	key_consistency, language, bailed_out, blind_mode, lazy_mode, funbox,
	difficulty, numbers, punctuation, is_pb`

// UpsertResults writes the batch inside one transaction. A result id that
// already exists has every non-key field overwritten; re-ingesting the
// same batch twice leaves storage byte-identical to ingesting it once.
// This is what makes the sync engine safe to retry and lets the floor
// request overlap already-stored rows without double counting.
func (db *DB) UpsertResults(ctx context.Context, results []model.Result) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning result transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (`+resultColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   uid = excluded.uid,
		   wpm = excluded.wpm,
		   raw_wpm = excluded.raw_wpm,
		   char_stats = excluded.char_stats,
		   acc = excluded.acc,
		   mode = excluded.mode,
		   mode2 = excluded.mode2,
		   quote_length = excluded.quote_length,
		   timestamp = excluded.timestamp,
		   timestamp_ms = excluded.timestamp_ms,
		   restart_count = excluded.restart_count,
		   incomplete_test_seconds = excluded.incomplete_test_seconds,
		   afk_duration = excluded.afk_duration,
		   test_duration = excluded.test_duration,
		   tags = excluded.tags,
		   consistency = excluded.consistency,
		   key_consistency = excluded.key_consistency,
		   language = excluded.language,
		   bailed_out = excluded.bailed_out,
		   blind_mode = excluded.blind_mode,
		   lazy_mode = excluded.lazy_mode,
		   funbox = excluded.funbox,
		   difficulty = excluded.difficulty,
		   numbers = excluded.numbers,
		   punctuation = excluded.punctuation,
		   is_pb = excluded.is_pb`,
	)
	if err != nil {
		return fmt.Errorf("sqlite: preparing result upsert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if r.ID == "" {
			return fmt.Errorf("sqlite: refusing to upsert result with empty id (uid=%s)", r.UID)
		}

		charStats, err := json.Marshal(r.CharStats)
		if err != nil {
			return fmt.Errorf("sqlite: encoding char stats for result %s: %w", r.ID, err)
		}
		tagIDs, err := json.Marshal(r.TagIDs)
		if err != nil {
			return fmt.Errorf("sqlite: encoding tag ids for result %s: %w", r.ID, err)
		}
		funbox, err := json.Marshal(r.Funbox)
		if err != nil {
			return fmt.Errorf("sqlite: encoding funbox for result %s: %w", r.ID, err)
		}

		// The default (English) corpus is stored as NULL, matching how the
		// upstream API omits the language field for it.
		var language sql.NullString
		if r.Language != model.LangDefault {
			language = sql.NullString{String: r.Language, Valid: true}
		}

		// Synthesized rows carry no upstream millisecond timestamp; NULL
		// here marks "unknown", distinct from the epoch.
		var timestampMs sql.NullInt64
		if r.TimestampMs != 0 {
			timestampMs = sql.NullInt64{Int64: r.TimestampMs, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx,
			r.ID, r.UID, r.WPM, r.RawWPM, string(charStats), r.Accuracy,
			r.Mode, r.Mode2, r.QuoteLength, r.Timestamp, timestampMs,
			r.RestartCount, r.IncompleteTestSeconds, r.AFKDuration,
			r.TestDuration, string(tagIDs), r.Consistency, r.KeyConsistency,
			language, r.BailedOut, r.BlindMode, r.LazyMode, string(funbox),
			r.Difficulty, r.Numbers, r.Punctuation, r.IsPersonalBest,
		); err != nil {
			return fmt.Errorf("sqlite: upserting result %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing result upsert: %w", err)
	}

	return nil
}

// MostRecentResultTimestampMs returns the latest stored timestamp for the
// account in Unix milliseconds, the unit the upstream floor filter compares.
// ok is false when the account has no results at all; "never synced" must
// be distinguishable from a zero timestamp.
//
// Rows written before the timestamp_ms column existed fall back to their
// second-truncated timestamp. That floor is up to 999ms low, so the
// boundary result is re-fetched once more; the upsert absorbs it and the
// re-fetch backfills the milliseconds, so the next pass is exact.
//
// Synthesized rows (tag personal bests, manual entries) are excluded:
// they are not part of the upstream history, so letting them advance the
// sync floor would leave gaps in the organic record.
func (db *DB) MostRecentResultTimestampMs(ctx context.Context, uid string) (int64, bool, error) {
	var tsMs int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(timestamp_ms, timestamp * 1000) AS ts_ms FROM results
		 WHERE uid = ? AND id NOT LIKE 'tagpb-%' AND id NOT LIKE 'manual-%'
		 ORDER BY ts_ms DESC LIMIT 1`,
		uid,
	).Scan(&tsMs)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("sqlite: getting most recent timestamp for %s: %w", uid, err)
	}
	return tsMs, true, nil
}

func (db *DB) ResultsForAccount(ctx context.Context, uid string) ([]model.Result, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+resultColumns+` FROM results WHERE uid = ? ORDER BY timestamp, id`,
		uid,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing results for account %s: %w", uid, err)
	}
	return collectResults(rows)
}

// ResultsInWindow returns results with timestamp in [w.Start, w.End), for
// one account when uid is non-empty, otherwise for all accounts. Rows are
// ordered by timestamp then id so the ranking tie-break is stable across
// calls.
func (db *DB) ResultsInWindow(ctx context.Context, w model.Window, uid string) ([]model.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results
	          WHERE timestamp >= ? AND timestamp < ?`
	args := []any{w.Start.Unix(), w.End.Unix()}
	if uid != "" {
		query += ` AND uid = ?`
		args = append(args, uid)
	}
	query += ` ORDER BY timestamp, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing results in window: %w", err)
	}
	return collectResults(rows)
}

func collectResults(rows *sql.Rows) ([]model.Result, error) {
	defer rows.Close()

	var results []model.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating results: %w", err)
	}

	return results, nil
}

// scanResult reads one row in resultColumns order. Every column beyond
// (id, uid) is nullable; rows written before a column existed scan as the
// zero value.
func scanResult(rows *sql.Rows) (*model.Result, error) {
	var (
		r           model.Result
		wpm         sql.NullFloat64
		rawWPM      sql.NullFloat64
		charStats   sql.NullString
		acc         sql.NullFloat64
		mode        sql.NullString
		mode2       sql.NullString
		quoteLen    sql.NullInt64
		timestamp   sql.NullInt64
		timestampMs sql.NullInt64
		restarts    sql.NullInt64
		incomplete  sql.NullFloat64
		afk         sql.NullFloat64
		duration    sql.NullFloat64
		tagIDs      sql.NullString
		consist     sql.NullFloat64
		keyConsist  sql.NullFloat64
		language    sql.NullString
		bailedOut   sql.NullBool
		blindMode   sql.NullBool
		lazyMode    sql.NullBool
		funbox      sql.NullString
		difficulty  sql.NullString
		numbers     sql.NullBool
		punct       sql.NullBool
		isPB        sql.NullBool
	)

	if err := rows.Scan(
		&r.ID, &r.UID, &wpm, &rawWPM, &charStats, &acc, &mode, &mode2,
		&quoteLen, &timestamp, &timestampMs, &restarts, &incomplete, &afk,
		&duration, &tagIDs, &consist, &keyConsist, &language, &bailedOut,
		&blindMode, &lazyMode, &funbox, &difficulty, &numbers, &punct, &isPB,
	); err != nil {
		return nil, fmt.Errorf("sqlite: scanning result row: %w", err)
	}

	r.WPM = wpm.Float64
	r.RawWPM = rawWPM.Float64
	r.Accuracy = acc.Float64
	r.Mode = mode.String
	r.Mode2 = mode2.String
	r.QuoteLength = quoteLen.Int64
	r.Timestamp = timestamp.Int64
	r.TimestampMs = timestampMs.Int64
	r.RestartCount = restarts.Int64
	r.IncompleteTestSeconds = incomplete.Float64
	r.AFKDuration = afk.Float64
	r.TestDuration = duration.Float64
	r.Consistency = consist.Float64
	r.KeyConsistency = keyConsist.Float64
	r.Language = language.String
	r.BailedOut = bailedOut.Bool
	r.BlindMode = blindMode.Bool
	r.LazyMode = lazyMode.Bool
	r.Difficulty = difficulty.String
	r.Numbers = numbers.Bool
	r.Punctuation = punct.Bool
	r.IsPersonalBest = isPB.Bool

	if charStats.Valid && charStats.String != "" {
		if err := json.Unmarshal([]byte(charStats.String), &r.CharStats); err != nil {
			return nil, fmt.Errorf("sqlite: decoding char stats for result %s: %w", r.ID, err)
		}
	}
	if tagIDs.Valid && tagIDs.String != "" {
		if err := json.Unmarshal([]byte(tagIDs.String), &r.TagIDs); err != nil {
			return nil, fmt.Errorf("sqlite: decoding tag ids for result %s: %w", r.ID, err)
		}
	}
	if funbox.Valid && funbox.String != "" {
		if err := json.Unmarshal([]byte(funbox.String), &r.Funbox); err != nil {
			return nil, fmt.Errorf("sqlite: decoding funbox for result %s: %w", r.ID, err)
		}
	}

	return &r, nil
}
