package service

import (
	"context"
	"sort"
	"strings"

	"github.com/ctc-wpm/monkeyboard/internal/model"
	"github.com/ctc-wpm/monkeyboard/internal/ranking"
)

// RankFor computes the standings for a window: each participating
// account's best eligible score per category, ordered for display.
// Opted-out accounts are absent even though their results are stored.
func (s *Service) RankFor(ctx context.Context, w model.Window) ([]model.RankingEntry, error) {
	results, err := s.results.ResultsInWindow(ctx, w, "")
	if err != nil {
		return nil, err
	}

	participants, err := s.participants(ctx)
	if err != nil {
		return nil, err
	}

	bests := ranking.BestPerAccount(results, w)

	var entries []model.RankingEntry
	for uid, byLang := range bests {
		account, ok := participants[uid]
		if !ok {
			continue
		}

		tagNames, err := s.tags.TagNames(ctx, uid)
		if err != nil {
			return nil, err
		}

		for _, best := range byLang {
			entries = append(entries, model.RankingEntry{
				UID:            uid,
				Name:           account.Name,
				DiscordID:      account.DiscordID,
				WPM:            best.WPM,
				Accuracy:       best.Accuracy,
				Language:       best.Language,
				IsPersonalBest: best.IsPersonalBest,
				Timestamp:      best.Timestamp,
				TagNames:       joinTagNames(best.TagIDs, tagNames),
			})
		}
	}

	ranking.SortEntries(entries)
	return entries, nil
}

// RankWithComparison is RankFor plus each entry's prior best: the same
// account and category's best score from the reference window, usually the
// preceding month. Entries whose category had no prior score carry no
// prior best and no delta.
func (s *Service) RankWithComparison(ctx context.Context, w, reference model.Window) ([]model.RankingEntry, error) {
	entries, err := s.RankFor(ctx, w)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return entries, nil
	}

	priorResults, err := s.results.ResultsInWindow(ctx, reference, "")
	if err != nil {
		return nil, err
	}
	priorBests := ranking.BestPerAccount(priorResults, reference)

	for i := range entries {
		byLang, ok := priorBests[entries[i].UID]
		if !ok {
			continue
		}
		if best, ok := byLang[entries[i].Language]; ok {
			wpm := best.WPM
			entries[i].PriorBestWPM = &wpm
		}
	}
	return entries, nil
}

// PersonalRanking returns one account's standings entries for the window,
// with comparison against the preceding month attached. An account with no
// eligible result in any category gets an empty slice, not an error.
func (s *Service) PersonalRanking(ctx context.Context, discordID string, w model.Window) ([]model.RankingEntry, error) {
	account, err := s.accounts.AccountByDiscordID(ctx, discordID)
	if err != nil {
		return nil, err
	}

	entries, err := s.RankWithComparison(ctx, w, w.Previous())
	if err != nil {
		return nil, err
	}

	var own []model.RankingEntry
	for _, e := range entries {
		if e.UID == account.UID {
			own = append(own, e)
		}
	}
	return own, nil
}

// CategoryRecords returns the single best wpm per category across all
// participants in the window, in display order with labels resolved.
func (s *Service) CategoryRecords(ctx context.Context, w model.Window) (map[string]float64, error) {
	results, err := s.results.ResultsInWindow(ctx, w, "")
	if err != nil {
		return nil, err
	}

	participants, err := s.participants(ctx)
	if err != nil {
		return nil, err
	}

	eligible := results[:0]
	for _, r := range results {
		if _, ok := participants[r.UID]; ok {
			eligible = append(eligible, r)
		}
	}

	bests := ranking.BestWPMByCategory(eligible, w)

	records := make(map[string]float64, len(bests))
	for language, wpm := range bests {
		records[ranking.CategoryLabel(language)] = wpm
	}
	return records, nil
}

// participants maps uid to account for everyone eligible to appear in
// ranking output.
func (s *Service) participants(ctx context.Context) (map[string]model.Account, error) {
	accounts, err := s.accounts.ListAccounts(ctx, false)
	if err != nil {
		return nil, err
	}

	byUID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byUID[a.UID] = a
	}
	return byUID, nil
}

// joinTagNames resolves a result's tag ids to a comma-separated display
// string, sorted for stable output. Unknown ids (tags deleted upstream)
// are skipped.
func joinTagNames(tagIDs []string, names map[string]string) string {
	var resolved []string
	for _, id := range tagIDs {
		if name, ok := names[id]; ok {
			resolved = append(resolved, name)
		}
	}
	sort.Strings(resolved)
	return strings.Join(resolved, ", ")
}
