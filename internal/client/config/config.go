package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/logging"
)

// Config holds runtime settings of the wallet CLI.
type Config struct {
	// Storage is memory, local or remote.
	Storage     string
	KeystoreURL string
	DBPath      string

	ExplorerURL string
	RatesURL    string
	SignerURL   string
	// FeedURL is the explorer websocket; empty disables live updates.
	FeedURL string

	Discover     bool
	Demo         bool
	Fiat         string
	StageTimeout time.Duration
	HTTPTimeout  time.Duration
	LogLevel     string
}

// LoadDefaults populates c with defaults suitable for a local setup.
func (c *Config) LoadDefaults() {
	c.Storage = "local"
	c.KeystoreURL = "http://127.0.0.1:8080"
	c.DBPath = "coinkeeper.db"
	c.ExplorerURL = "http://127.0.0.1:3001"
	c.RatesURL = "http://127.0.0.1:3001"
	c.SignerURL = "http://127.0.0.1:3001"
	c.FeedURL = "ws://127.0.0.1:3001/ws"
	c.Discover = true
	c.Fiat = "usd"
	c.StageTimeout = 15 * time.Second
	c.HTTPTimeout = 30 * time.Second
	c.LogLevel = "warn"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Storage {
	case "memory", "local", "remote":
	default:
		return fmt.Errorf("unknown storage %q", c.Storage)
	}
	if c.Storage == "remote" && c.KeystoreURL == "" {
		return fmt.Errorf("remote storage needs a keystore url")
	}
	if c.Storage == "local" && c.DBPath == "" {
		return fmt.Errorf("local storage needs a database path")
	}
	if c.StageTimeout <= 0 {
		return fmt.Errorf("stage timeout must be positive, got %s", c.StageTimeout)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// LoadConfig applies defaults, then the JSON file (if any), then flags.
// Later sources win.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
