package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/ctc-wpm/monkeyboard/internal/apperror"
	"github.com/ctc-wpm/monkeyboard/internal/model"
)

// newTestDB returns a DB backed by an in-memory SQLite database that is
// closed when the test finishes.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create in-memory DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testKey(seed byte) string {
	key := make([]byte, 76)
	for i := range key {
		key[i] = 'A' + (seed+byte(i))%26
	}
	return string(key)
}

func createTestAccount(t *testing.T, db *DB, uid, discordID string) *model.Account {
	t.Helper()
	account := &model.Account{
		UID:       uid,
		Name:      "typist_" + uid,
		DiscordID: discordID,
		ApeKey:    testKey(uid[len(uid)-1]),
		IsActive:  true,
	}
	if err := db.UpsertAccount(context.Background(), account); err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

func TestUpsertAccount(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "mt-uid-1", "discord-1")

	found, err := db.AccountByDiscordID(context.Background(), "discord-1")
	if err != nil {
		t.Fatalf("AccountByDiscordID() error = %v", err)
	}
	if found.UID != account.UID {
		t.Errorf("UID = %q, want %q", found.UID, account.UID)
	}
	if !found.IsActive {
		t.Error("new account should be active")
	}
	if found.DoNotTrack {
		t.Error("new account should not be opted out")
	}
}

func TestUpsertAccount_ConflictPreservesFlags(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "mt-uid-2", "discord-2")

	// Deactivate and opt out, then re-link the same uid with a fresh key.
	if err := db.SetActive(context.Background(), account.UID, false); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if err := db.SetOptOut(context.Background(), account.UID, true); err != nil {
		t.Fatalf("SetOptOut() error = %v", err)
	}

	relinked := &model.Account{
		UID:       account.UID,
		Name:      "renamed",
		DiscordID: account.DiscordID,
		ApeKey:    testKey('z'),
		IsActive:  true,
	}
	if err := db.UpsertAccount(context.Background(), relinked); err != nil {
		t.Fatalf("UpsertAccount() (relink) error = %v", err)
	}

	found, err := db.AccountByDiscordID(context.Background(), account.DiscordID)
	if err != nil {
		t.Fatalf("AccountByDiscordID() after relink: %v", err)
	}
	if found.Name != "renamed" {
		t.Errorf("Name = %q, want %q", found.Name, "renamed")
	}
	if found.ApeKey != relinked.ApeKey {
		t.Error("ape key should be refreshed on relink")
	}
	if found.IsActive {
		t.Error("relink must not resurrect a deactivated key")
	}
	if !found.DoNotTrack {
		t.Error("relink must not clear an opt-out")
	}
}

func TestUpsertAccount_MissingFields(t *testing.T) {
	db := newTestDB(t)

	err := db.UpsertAccount(context.Background(), &model.Account{UID: "only-uid"})
	if err == nil {
		t.Fatal("UpsertAccount() should reject an account without discordId/apeKey")
	}
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestAccountByKey(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "mt-uid-3", "discord-3")

	found, err := db.AccountByKey(context.Background(), account.ApeKey)
	if err != nil {
		t.Fatalf("AccountByKey() error = %v", err)
	}
	if found.UID != account.UID {
		t.Errorf("UID = %q, want %q", found.UID, account.UID)
	}
}

func TestAccountByDiscordID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.AccountByDiscordID(context.Background(), "nope")
	if err == nil {
		t.Fatal("AccountByDiscordID() should fail for an unknown discord id")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAccountExists(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "mt-uid-4", "discord-4")

	exists, err := db.AccountExists(context.Background(), "discord-4")
	if err != nil {
		t.Fatalf("AccountExists() error = %v", err)
	}
	if !exists {
		t.Error("AccountExists() = false for a linked discord id")
	}

	exists, err = db.AccountExists(context.Background(), "discord-unknown")
	if err != nil {
		t.Fatalf("AccountExists() error = %v", err)
	}
	if exists {
		t.Error("AccountExists() = true for an unknown discord id")
	}
}

func TestListAccounts_OptOutFilter(t *testing.T) {
	db := newTestDB(t)
	createTestAccount(t, db, "mt-uid-5", "discord-5")
	optedOut := createTestAccount(t, db, "mt-uid-6", "discord-6")

	if err := db.SetOptOut(context.Background(), optedOut.UID, true); err != nil {
		t.Fatalf("SetOptOut() error = %v", err)
	}

	accounts, err := db.ListAccounts(context.Background(), false)
	if err != nil {
		t.Fatalf("ListAccounts(false) error = %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("ListAccounts(false) returned %d accounts, want 1", len(accounts))
	}
	if accounts[0].UID != "mt-uid-5" {
		t.Errorf("remaining account = %q, want mt-uid-5", accounts[0].UID)
	}

	accounts, err = db.ListAccounts(context.Background(), true)
	if err != nil {
		t.Fatalf("ListAccounts(true) error = %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("ListAccounts(true) returned %d accounts, want 2", len(accounts))
	}
}

func TestSetOptOut_Idempotent(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "mt-uid-7", "discord-7")

	for i := 0; i < 2; i++ {
		if err := db.SetOptOut(context.Background(), account.UID, true); err != nil {
			t.Fatalf("SetOptOut() call %d error = %v", i+1, err)
		}
	}

	found, err := db.AccountByDiscordID(context.Background(), account.DiscordID)
	if err != nil {
		t.Fatalf("AccountByDiscordID() error = %v", err)
	}
	if !found.DoNotTrack {
		t.Error("DoNotTrack should be set after repeated SetOptOut(true)")
	}
}

func TestSetOptOut_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.SetOptOut(context.Background(), "ghost", true)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("SetOptOut() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteAccount_Cascades(t *testing.T) {
	db := newTestDB(t)
	account := createTestAccount(t, db, "mt-uid-8", "discord-8")

	tags := []model.Tag{{ID: "tag-1", Name: "50 words", UID: account.UID}}
	if err := db.UpsertTags(context.Background(), tags); err != nil {
		t.Fatalf("UpsertTags() error = %v", err)
	}
	results := []model.Result{{ID: "res-1", UID: account.UID, WPM: 80, Timestamp: 1700000000}}
	if err := db.UpsertResults(context.Background(), results); err != nil {
		t.Fatalf("UpsertResults() error = %v", err)
	}

	if err := db.DeleteAccount(context.Background(), account.UID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}

	if _, err := db.AccountByDiscordID(context.Background(), account.DiscordID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AccountByDiscordID() after delete = %v, want ErrNotFound", err)
	}

	names, err := db.TagNames(context.Background(), account.UID)
	if err != nil {
		t.Fatalf("TagNames() after delete: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("tags survived the cascade: %v", names)
	}

	remaining, err := db.ResultsForAccount(context.Background(), account.UID)
	if err != nil {
		t.Fatalf("ResultsForAccount() after delete: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("results survived the cascade: %d rows", len(remaining))
	}
}

func TestDeleteAccount_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeleteAccount(context.Background(), "ghost")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteAccount() error = %v, want ErrNotFound", err)
	}
}
