package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/repository"
)

// compile-time check that *DB implements repository.AccountRepository
var _ repository.AccountRepository = (*DB)(nil)

// UpsertAccount inserts the account, or refreshes name, discord id and ape
// key when the uid already exists. The status flags are deliberately left
// alone on conflict: re-linking must not resurrect a deactivated key or
// silently clear an opt-out.
func (db *DB) UpsertAccount(ctx context.Context, account *model.Account) error {
	if account.UID == "" || account.DiscordID == "" || account.ApeKey == "" {
		return apperror.ValidationFailed("account", "uid, discordId and apeKey are required")
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO accounts (uid, name, discord_id, ape_key, is_active, do_not_track)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uid) DO UPDATE SET
		   name       = excluded.name,
		   discord_id = excluded.discord_id,
		   ape_key    = excluded.ape_key`,
		account.UID,
		account.Name,
		account.DiscordID,
		account.ApeKey,
		account.IsActive,
		account.DoNotTrack,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting account %s: %w", account.UID, err)
	}

	return nil
}

func (db *DB) AccountByKey(ctx context.Context, apeKey string) (*model.Account, error) {
	return db.accountBy(ctx, "ape_key", apeKey)
}

func (db *DB) AccountByDiscordID(ctx context.Context, discordID string) (*model.Account, error) {
	return db.accountBy(ctx, "discord_id", discordID)
}

func (db *DB) accountBy(ctx context.Context, column, value string) (*model.Account, error) {
	var a model.Account

	// ORDER BY uid keeps the lookup deterministic when the maintainer has
	// multiple accounts linked to one discord id.
	err := db.conn.QueryRowContext(ctx,
		`SELECT uid, name, discord_id, ape_key, is_active, do_not_track
		 FROM accounts WHERE `+column+` = ? ORDER BY uid LIMIT 1`,
		value,
	).Scan(
		&a.UID,
		&a.Name,
		&a.DiscordID,
		&a.ApeKey,
		&a.IsActive,
		&a.DoNotTrack,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", value)
		}
		return nil, fmt.Errorf("sqlite: getting account by %s: %w", column, err)
	}

	return &a, nil
}

func (db *DB) AccountExists(ctx context.Context, discordID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE discord_id = ?`, discordID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking account for discord id %s: %w", discordID, err)
	}
	return count > 0, nil
}

func (db *DB) ListAccounts(ctx context.Context, includeOptedOut bool) ([]model.Account, error) {
	query := `SELECT uid, name, discord_id, ape_key, is_active, do_not_track
	          FROM accounts`
	if !includeOptedOut {
		query += ` WHERE do_not_track = 0`
	}
	query += ` ORDER BY uid`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		var a model.Account
		if err := rows.Scan(
			&a.UID, &a.Name, &a.DiscordID, &a.ApeKey, &a.IsActive, &a.DoNotTrack,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning account row: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating accounts: %w", err)
	}

	return accounts, nil
}

func (db *DB) SetActive(ctx context.Context, uid string, active bool) error {
	return db.setFlag(ctx, uid, "is_active", active)
}

// SetOptOut flips the do-not-track flag. Setting the same value twice is a
// no-op, not an error.
func (db *DB) SetOptOut(ctx context.Context, uid string, optOut bool) error {
	return db.setFlag(ctx, uid, "do_not_track", optOut)
}

func (db *DB) setFlag(ctx context.Context, uid, column string, value bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE accounts SET `+column+` = ? WHERE uid = ?`,
		value, uid,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting %s for account %s: %w", column, uid, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("account", uid)
	}

	return nil
}

// DeleteAccount removes the account and everything it owns (tags and
// results) in one transaction, so the caller sees either the full cascade
// or no change at all.
func (db *DB) DeleteAccount(ctx context.Context, uid string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("sqlite: deleting account %s: %w", uid, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("account", uid)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("sqlite: deleting tags for account %s: %w", uid, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("sqlite: deleting results for account %s: %w", uid, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete for account %s: %w", uid, err)
	}

	return nil
}
