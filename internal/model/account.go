// Package model defines the data structures used throughout the application.
package model

// Account is a linked Monkeytype account.
//
// UID is Monkeytype's stable account id and our primary key. DiscordID is
// the Discord snowflake the account is linked to; one Discord identity maps
// to one account, enforced at link time with an exception for the
// maintainer's test fixtures. ApeKey is the per-account
// API credential; it is stored verbatim because we must replay it upstream
// on every sync (there is nothing to hash; losing the plaintext would
// break the bot).
//
// IsActive tracks the last-known validity of the ApeKey (flipped off when
// the upstream API answers 471). DoNotTrack means the user opted out of
// ranking while staying linked; their history keeps syncing but they never
// appear in leaderboard output.
type Account struct {
	UID        string `json:"uid"        db:"uid"`
	Name       string `json:"name"       db:"name"`
	DiscordID  string `json:"discordId"  db:"discord_id"`
	ApeKey     string `json:"-"          db:"ape_key"`
	IsActive   bool   `json:"isActive"   db:"is_active"`
	DoNotTrack bool   `json:"doNotTrack" db:"do_not_track"`
}

// Tag is a user-defined label scoped to one account. Tags are display-only
// grouping; eligibility never depends on them.
type Tag struct {
	ID   string `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
	UID  string `json:"uid"  db:"uid"`
}

// Profile is the subset of a Monkeytype profile the bot cares about.
type Profile struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// TagWithBests pairs a tag with the personal-best results Monkeytype
// reports for it. The bests come back without ids or owner; the sync
// engine fills those in before persisting them.
type TagWithBests struct {
	Tag   Tag
	Bests []Result
}
