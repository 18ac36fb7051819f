package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/monkeytype"
)

// SyncSummary reports one multi-account sync pass. UpstreamFailures is the
// subset of AccountsFailed caused by the scoring API (rejected key, network
// or decode trouble) rather than local storage.
type SyncSummary struct {
	AccountsProcessed int `json:"accountsProcessed"`
	AccountsFailed    int `json:"accountsFailed"`
	UpstreamFailures  int `json:"upstreamFailures"`
	ResultsAdded      int `json:"resultsAdded"`
}

// SyncAccount pulls everything newer than the account's most recently
// stored result and refreshes its tags. An account never seen before
// starts at the beginning of the current month.
//
// The floor is strictly-after: the upstream filter is inclusive, so the
// request asks for the last stored millisecond timestamp plus one. With no
// upstream activity since the last pass, no page contains anything and the
// reported count is 0. Returns the number of results written.
func (s *Service) SyncAccount(ctx context.Context, account *model.Account) (int, error) {
	lock := s.syncLock(account.UID)
	lock.Lock()
	defer lock.Unlock()

	client, err := s.newClient(account.ApeKey)
	if err != nil {
		return 0, err
	}

	if err := s.refreshTags(ctx, client, account.UID); err != nil {
		return 0, s.markInactiveOnKeyError(ctx, account, err)
	}

	floorMs := int64(0)
	if tsMs, ok, err := s.results.MostRecentResultTimestampMs(ctx, account.UID); err != nil {
		return 0, err
	} else if ok {
		floorMs = tsMs + 1
	} else {
		floorMs = model.CurrentMonth(s.now()).Start.UnixMilli()
	}

	added := 0
	for page := 0; page < s.maxPages; page++ {
		batch, err := client.Results(ctx, floorMs, page*monkeytype.ResultsPageSize)
		if err != nil {
			return added, s.markInactiveOnKeyError(ctx, account, err)
		}

		for i := range batch {
			batch[i].UID = account.UID
		}
		if err := s.results.UpsertResults(ctx, batch); err != nil {
			return added, err
		}
		added += len(batch)

		if len(batch) < monkeytype.ResultsPageSize {
			break
		}
	}

	if !account.IsActive {
		// The key works again; let the scheduler pick the account back up.
		if err := s.accounts.SetActive(ctx, account.UID, true); err != nil {
			return added, err
		}
		account.IsActive = true
	}

	s.logger.Debug("account synced",
		slog.String("uid", account.UID),
		slog.Int("results_added", added),
	)
	return added, nil
}

// markInactiveOnKeyError deactivates the account when the upstream API
// rejected its key, so scheduled passes stop burning requests on it. The
// original error is returned either way.
func (s *Service) markInactiveOnKeyError(ctx context.Context, account *model.Account, err error) error {
	if !errors.Is(err, apperror.ErrInvalidKey) {
		return err
	}
	if account.IsActive {
		if dbErr := s.accounts.SetActive(ctx, account.UID, false); dbErr != nil {
			s.logger.Error("failed to deactivate account",
				slog.String("uid", account.UID),
				slog.Any("error", dbErr),
			)
		} else {
			account.IsActive = false
			s.logger.Warn("ape key rejected, account deactivated",
				slog.String("uid", account.UID),
			)
		}
	}
	return err
}

// SyncAll runs a sync pass over every linked account with a working key.
// Scheduled passes set includeOptedOut: opting out hides a typist from
// standings, it does not stop their history. One failing account never
// aborts the pass, but cancellation does.
func (s *Service) SyncAll(ctx context.Context, includeOptedOut bool) (*SyncSummary, error) {
	accounts, err := s.accounts.ListAccounts(ctx, includeOptedOut)
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{}
	for i := range accounts {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		account := &accounts[i]
		if !account.IsActive {
			continue
		}

		added, err := s.SyncAccount(ctx, account)
		summary.ResultsAdded += added
		if err != nil {
			summary.AccountsFailed++
			if errors.Is(err, apperror.ErrUpstream) || errors.Is(err, apperror.ErrInvalidKey) {
				summary.UpstreamFailures++
			}
			s.logger.Error("account sync failed",
				slog.String("uid", account.UID),
				slog.Any("error", err),
			)
			continue
		}
		summary.AccountsProcessed++
	}

	s.logger.Info("sync pass finished",
		slog.Int("processed", summary.AccountsProcessed),
		slog.Int("failed", summary.AccountsFailed),
		slog.Int("results_added", summary.ResultsAdded),
	)
	return summary, nil
}

// refreshTags stores the account's current tag set and materializes the
// per-tag personal bests Monkeytype reports as result rows. Synthesized
// rows get a deterministic id so repeated refreshes overwrite instead of
// duplicating.
func (s *Service) refreshTags(ctx context.Context, client ScoreClient, uid string) error {
	withBests, err := client.Tags(ctx)
	if err != nil {
		return err
	}

	tags := make([]model.Tag, 0, len(withBests))
	var bests []model.Result
	for _, t := range withBests {
		tag := t.Tag
		tag.UID = uid
		tags = append(tags, tag)

		for _, b := range t.Bests {
			b.ID = tagBestID(tag.ID, b)
			b.UID = uid
			bests = append(bests, b)
		}
	}

	if err := s.tags.UpsertTags(ctx, tags); err != nil {
		return err
	}
	return s.results.UpsertResults(ctx, bests)
}

// tagBestID derives a stable id for a synthesized tag personal best. One
// row per (tag, mode, mode2, language) slot: when the best improves, the
// new values overwrite the old row.
func tagBestID(tagID string, b model.Result) string {
	language := b.Language
	if language == model.LangDefault {
		language = "english"
	}
	return fmt.Sprintf("tagpb-%s", strings.Join([]string{tagID, b.Mode, b.Mode2, language}, "-"))
}
