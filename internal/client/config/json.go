package config

import (
	"encoding/json"
	"os"

	"github.com/mkuznecovs/notesync/internal/flagx"
	"github.com/mkuznecovs/notesync/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals may
// be given as strings like "3s" or as integer nanoseconds (timex.Duration).
type JsonConfig struct {
	RemoteAddr          string         `json:"remote_addr"`
	AuthToken           string         `json:"auth_token"`
	Owner               string         `json:"owner"`
	DatabasePath        string         `json:"database_path"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	RetryBaseDelay      timex.Duration `json:"retry_base_delay"`
	ConflictStrategy    string         `json:"conflict_strategy"`
}

// parseJson overlays cfg with values from the JSON file named by the -c or
// -config flag. Missing flag means no JSON is loaded. Read or unmarshal
// errors panic; intended usage is defaults -> parseJson -> parseFlags.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.RemoteAddr != "" {
		cfg.RemoteAddr = jc.RemoteAddr
	}
	if jc.AuthToken != "" {
		cfg.AuthToken = jc.AuthToken
	}
	if jc.Owner != "" {
		cfg.Owner = jc.Owner
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval.Duration != 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.RetryBaseDelay.Duration != 0 {
		cfg.RetryBaseDelay = jc.RetryBaseDelay.Duration
	}
	if jc.ConflictStrategy != "" {
		cfg.ConflictStrategy = jc.ConflictStrategy
	}
}
