// Package repository declares the storage interfaces the service layer
// consumes. Services receive these interfaces, never a concrete *sqlite.DB;
// tests swap in fakes, and the SQL stays contained in one package.
package repository

import (
	"context"

	"github.com/ctc-wpm/monkeyboard/internal/model"
)

type AccountRepository interface {
	// UpsertAccount inserts the account or, when the uid already exists,
	// refreshes name, discord id and ape key while preserving flags.
	UpsertAccount(ctx context.Context, account *model.Account) error
	AccountByKey(ctx context.Context, apeKey string) (*model.Account, error)
	AccountByDiscordID(ctx context.Context, discordID string) (*model.Account, error)
	AccountExists(ctx context.Context, discordID string) (bool, error)
	// ListAccounts returns linked accounts; opted-out accounts are included
	// only when includeOptedOut is set (they keep syncing, they just never
	// appear in rankings).
	ListAccounts(ctx context.Context, includeOptedOut bool) ([]model.Account, error)
	SetActive(ctx context.Context, uid string, active bool) error
	// SetOptOut is idempotent; setting the same value twice is not an error.
	SetOptOut(ctx context.Context, uid string, optOut bool) error
	// DeleteAccount removes the account and cascades to its tags and
	// results in one transaction. Returns NotFound for an unknown uid.
	DeleteAccount(ctx context.Context, uid string) error
}

type TagRepository interface {
	UpsertTags(ctx context.Context, tags []model.Tag) error
	// TagNames maps tag id to tag name for one account.
	TagNames(ctx context.Context, uid string) (map[string]string, error)
}

type ResultRepository interface {
	// UpsertResults writes the batch with replace-on-conflict semantics:
	// a result id already present has every non-key field overwritten, so
	// retries and overlapping syncs converge on the same stored state.
	// An empty batch is a no-op.
	UpsertResults(ctx context.Context, results []model.Result) error
	// MostRecentResultTimestampMs returns the latest stored timestamp
	// among the account's organic results in Unix milliseconds, the unit
	// the upstream floor filter compares. Synthesized rows are skipped so
	// they never advance the sync floor. ok is false when no such results
	// exist; callers must distinguish "never synced" from "synced, zero
	// results".
	MostRecentResultTimestampMs(ctx context.Context, uid string) (tsMs int64, ok bool, err error)
	ResultsForAccount(ctx context.Context, uid string) ([]model.Result, error)
	// ResultsInWindow returns results with timestamp in [w.Start, w.End),
	// for one account when uid is non-empty, otherwise for all accounts.
	// Ordered by timestamp then id so downstream tie-breaking is stable.
	ResultsInWindow(ctx context.Context, w model.Window, uid string) ([]model.Result, error)
}
