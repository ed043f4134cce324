package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"remote_addr":           "http://notes.example:9000",
		"owner":                 "alice",
		"online_check_interval": "10s",
		"sync_interval":         "2m",
		"retry_base_delay":      "250ms",
		"conflict_strategy":     "server_wins",
	})

	t.Run("loads from file named by flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "http://notes.example:9000", cfg.RemoteAddr)
		assert.Equal(t, "alice", cfg.Owner)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
		assert.Equal(t, 2*time.Minute, cfg.SyncInterval)
		assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
		assert.Equal(t, "server_wins", cfg.ConflictStrategy)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			RemoteAddr:          "http://defaults:1234",
			OnlineCheckInterval: 42 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "http://defaults:1234", cfg.RemoteAddr)
		assert.Equal(t, 42*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("empty fields keep earlier values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{
			"owner": "bob",
		})
		os.Args = []string{"testbin", "-config", partial}

		cfg := &Config{RemoteAddr: "http://kept:1", Owner: "alice"}
		parseJson(cfg)

		assert.Equal(t, "http://kept:1", cfg.RemoteAddr)
		assert.Equal(t, "bob", cfg.Owner)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}
