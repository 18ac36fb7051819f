package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
	"github.com/ctc-wpm/monkeyboard/internal/model"
)

// Link connects a Discord identity to the Monkeytype account behind the
// given ApeKey. The key is validated upstream before anything is stored,
// the account's display name is resolved from its profile, and an initial
// sync pulls the current month's history so the account shows up in
// standings immediately.
//
// A Discord id may hold only one link; re-linking the same Monkeytype uid
// refreshes the stored key and reactivates the account, leaving the
// opt-out flag alone.
func (s *Service) Link(ctx context.Context, discordID, apeKey string) (*model.Account, error) {
	if discordID == "" {
		return nil, apperror.ValidationFailed("discordId", "discord id is required")
	}

	client, err := s.newClient(apeKey)
	if err != nil {
		return nil, err
	}

	exists, err := s.accounts.AccountExists(ctx, discordID)
	if err != nil {
		return nil, err
	}
	if exists && discordID != s.maintainerID {
		existing, err := s.accounts.AccountByDiscordID(ctx, discordID)
		if err != nil {
			return nil, err
		}
		// Same account again is a key refresh, not a duplicate.
		if existing.ApeKey != apeKey {
			last, err := client.LastResult(ctx)
			if err != nil {
				return nil, err
			}
			if last.UID != existing.UID {
				return nil, apperror.DuplicateLink(discordID)
			}
		}
	}

	if err := client.ValidateKey(ctx); err != nil {
		return nil, err
	}

	last, err := client.LastResult(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := client.Profile(ctx, last.UID)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		UID:       last.UID,
		Name:      profile.Name,
		DiscordID: discordID,
		ApeKey:    apeKey,
		IsActive:  true,
	}
	if err := s.accounts.UpsertAccount(ctx, account); err != nil {
		return nil, err
	}
	// The upsert preserves flags on an existing row, but the key just
	// validated, so a previously deactivated account comes back into the
	// scheduled rotation here.
	if err := s.accounts.SetActive(ctx, account.UID, true); err != nil {
		return nil, err
	}

	s.logger.Info("account linked",
		slog.String("uid", account.UID),
		slog.String("name", account.Name),
		slog.String("discord_id", discordID),
	)

	if _, err := s.SyncAccount(ctx, account); err != nil {
		// The link itself succeeded; the scheduler retries the sync.
		s.logger.Warn("initial sync failed",
			slog.String("uid", account.UID),
			slog.Any("error", err),
		)
	}

	return account, nil
}

// Unlink removes the link for a Discord identity together with all stored
// tags and results.
func (s *Service) Unlink(ctx context.Context, discordID string) error {
	account, err := s.accounts.AccountByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}
	if err := s.accounts.DeleteAccount(ctx, account.UID); err != nil {
		return err
	}

	s.logger.Info("account unlinked",
		slog.String("uid", account.UID),
		slog.String("discord_id", discordID),
	)
	return nil
}

// SetOptOut flips ranking participation for a Discord identity. Opted-out
// accounts keep syncing so their history is intact if they opt back in.
func (s *Service) SetOptOut(ctx context.Context, discordID string, optOut bool) error {
	account, err := s.accounts.AccountByDiscordID(ctx, discordID)
	if err != nil {
		return err
	}
	return s.accounts.SetOptOut(ctx, account.UID, optOut)
}

// Account returns the link for a Discord identity.
func (s *Service) Account(ctx context.Context, discordID string) (*model.Account, error) {
	return s.accounts.AccountByDiscordID(ctx, discordID)
}

// AccountCount reports how many accounts are linked, opted-out included.
func (s *Service) AccountCount(ctx context.Context) (int, error) {
	accounts, err := s.accounts.ListAccounts(ctx, true)
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}

// AddManualResult records an admin-entered score for a linked account,
// for typists whose setup cannot sync. Manual rows carry a recognizable
// id prefix and flow through ranking like any synced result.
func (s *Service) AddManualResult(ctx context.Context, discordID string, result model.Result) (*model.Result, error) {
	if result.WPM <= 0 {
		return nil, apperror.ValidationFailed("wpm", "wpm must be positive")
	}
	if result.Accuracy < 0 || result.Accuracy > 100 {
		return nil, apperror.ValidationFailed("acc", "accuracy must be between 0 and 100")
	}

	account, err := s.accounts.AccountByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}

	result.ID = fmt.Sprintf("manual-%s", xid.New())
	result.UID = account.UID
	if result.Mode == "" {
		result.Mode = model.ModeWords
	}
	if result.Timestamp == 0 {
		result.Timestamp = s.now().Unix()
	}

	if err := s.results.UpsertResults(ctx, []model.Result{result}); err != nil {
		return nil, err
	}

	s.logger.Info("manual result recorded",
		slog.String("id", result.ID),
		slog.String("uid", account.UID),
		slog.Float64("wpm", result.WPM),
	)
	return &result, nil
}
