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
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"storage":       "remote",
		"keystore_url":  "https://ks.example",
		"explorer_url":  "https://ex.example",
		"feed_url":      "",
		"discover":      false,
		"demo":          true,
		"fiat":          "eur",
		"stage_timeout": "3s",
		"http_timeout":  5000000000,
		"log_level":     "debug",
	})
	partial := writeTempJSON(t, dir, "partial.json", map[string]any{
		"fiat": "gbp",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", full}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "remote", cfg.Storage)
		assert.Equal(t, "https://ks.example", cfg.KeystoreURL)
		assert.Equal(t, "https://ex.example", cfg.ExplorerURL)
		assert.Equal(t, "", cfg.FeedURL)
		assert.False(t, cfg.Discover)
		assert.True(t, cfg.Demo)
		assert.Equal(t, "eur", cfg.Fiat)
		assert.Equal(t, 3*time.Second, cfg.StageTimeout)
		assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "coinkeeper.db", cfg.DBPath)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "gbp", cfg.Fiat)
		assert.Equal(t, "local", cfg.Storage)
		assert.True(t, cfg.Discover)
	})

	t.Run("flags override json", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", full, "-s", "memory"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)
		parseFlags(cfg)

		assert.Equal(t, "memory", cfg.Storage)
		assert.Equal(t, "eur", cfg.Fiat)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{Storage: "memory", StageTimeout: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "memory", cfg.Storage)
		assert.Equal(t, 42*time.Second, cfg.StageTimeout)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
