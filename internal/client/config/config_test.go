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

	assert.Equal(t, "local", c.Storage)
	assert.Equal(t, "coinkeeper.db", c.DBPath)
	assert.True(t, c.Discover)
	assert.False(t, c.Demo)
	assert.Equal(t, "usd", c.Fiat)
	assert.Equal(t, 15*time.Second, c.StageTimeout)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "local", cfg.Storage)
	assert.Equal(t, 15*time.Second, cfg.StageTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{name: "defaults", mutate: func(*Config) {}, ok: true},
		{name: "memory", mutate: func(c *Config) { c.Storage = "memory"; c.DBPath = "" }, ok: true},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage = "cloud" }},
		{name: "remote without url", mutate: func(c *Config) { c.Storage = "remote"; c.KeystoreURL = "" }},
		{name: "local without path", mutate: func(c *Config) { c.DBPath = "" }},
		{name: "zero timeout", mutate: func(c *Config) { c.StageTimeout = 0 }},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			if tt.ok {
				assert.NoError(t, c.Validate())
			} else {
				assert.Error(t, c.Validate())
			}
		})
	}
}
