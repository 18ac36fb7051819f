// Package config defines process configuration and its loading chain:
// defaults, then an optional YAML file, then environment variables.
package config

import (
	"errors"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database file. ":memory:" works for throwaway runs.
	DBPath string `koanf:"db_path"`

	// APIBaseURL overrides the scoring API endpoint, mainly for tests.
	APIBaseURL string `koanf:"api_base_url"`

	// UpstreamTimeout bounds each scoring API call.
	UpstreamTimeout time.Duration `koanf:"upstream_timeout"`

	// SyncInterval is the period between scheduled sync passes.
	// Zero disables the scheduler.
	SyncInterval time.Duration `koanf:"sync_interval"`

	// MaxPagesPerSync caps result pages fetched per account per pass.
	MaxPagesPerSync int `koanf:"max_pages_per_sync"`

	// MaintainerDiscordID, when set, names the one Discord id allowed to
	// hold multiple account links.
	MaintainerDiscordID string `koanf:"maintainer_discord_id"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		DBPath:          "monkeyboard.db",
		UpstreamTimeout: 15 * time.Second,
		SyncInterval:    10 * time.Minute,
		MaxPagesPerSync: 100,
	}
}

// Validate checks invariants after loading.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.SyncInterval < 0 {
		return errors.New("sync_interval must not be negative")
	}
	return nil
}
