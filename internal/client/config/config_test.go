package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.RemoteAddr)
	assert.Equal(t, "default", c.Owner)
	assert.Equal(t, "notes.db", c.DatabasePath)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, time.Minute, c.SyncInterval)
	assert.Equal(t, 500*time.Millisecond, c.RetryBaseDelay)
	assert.Equal(t, "client_wins", c.ConflictStrategy)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:8080", cfg.RemoteAddr)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}
