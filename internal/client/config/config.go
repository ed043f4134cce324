// Package config loads runtime settings for the sync client. Values are
// resolved in three stages, later stages winning: built-in defaults, a JSON
// file (path from -c/-config), then command-line flags.
package config

import "time"

// Config holds runtime settings for the sync client.
type Config struct {
	// RemoteAddr is the base URL of the note service.
	RemoteAddr string
	// AuthToken is an opaque bearer credential for the note service.
	AuthToken string
	// Owner namespaces all local state; usually the signed-in user id.
	Owner string
	// DatabasePath is the SQLite file holding notes, mutations and metadata.
	DatabasePath string
	// OnlineCheckInterval is how often the client probes remote reachability.
	OnlineCheckInterval time.Duration
	// SyncInterval is how often a periodic sync pass runs while online.
	SyncInterval time.Duration
	// RetryBaseDelay seeds the exponential backoff used for retried remote
	// calls and re-attempted mutations (delay = base * 2^retries).
	RetryBaseDelay time.Duration
	// ConflictStrategy picks the conflict resolution strategy by name:
	// client_wins, server_wins, merge or ask_user.
	ConflictStrategy string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.RemoteAddr = "http://127.0.0.1:8080"
	c.Owner = "default"
	c.DatabasePath = "notes.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = time.Minute
	c.RetryBaseDelay = 500 * time.Millisecond
	c.ConflictStrategy = "client_wins"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
