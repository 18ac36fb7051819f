package sqlite

import (
	"context"
	"fmt"

	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/repository"
)

var _ repository.TagRepository = (*DB)(nil)

// UpsertTags writes the batch with replace-on-conflict semantics, keyed by
// tag id. Renamed tags simply overwrite their old name on the next sync.
func (db *DB) UpsertTags(ctx context.Context, tags []model.Tag) error {
	if len(tags) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning tag transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tags (id, name, uid)
		 VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   uid  = excluded.uid`,
	)
	if err != nil {
		return fmt.Errorf("sqlite: preparing tag upsert: %w", err)
	}
	defer stmt.Close()

	for _, tag := range tags {
		if _, err := stmt.ExecContext(ctx, tag.ID, tag.Name, tag.UID); err != nil {
			return fmt.Errorf("sqlite: upserting tag %s: %w", tag.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing tag upsert: %w", err)
	}

	return nil
}

// TagNames returns the id → name mapping for one account's tags.
func (db *DB) TagNames(ctx context.Context, uid string) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name FROM tags WHERE uid = ?`, uid,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags for account %s: %w", uid, err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return names, nil
}
