package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/coinkeeper/internal/flagx"
	"github.com/dmitrijs2005/coinkeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept both
// strings such as "5s" and integer nanoseconds.
type JsonConfig struct {
	Addr            *string         `json:"addr"`
	Storage         *string         `json:"storage"`
	DatabaseDSN     *string         `json:"database_dsn"`
	SharedKeyBytes  *int            `json:"shared_key_bytes"`
	RequestTimeout  *timex.Duration `json:"request_timeout"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`
	LogLevel        *string         `json:"log_level"`
}

// parseJson overlays config with the file named by -c/-config, if any.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.Addr != nil {
		config.Addr = *c.Addr
	}
	if c.Storage != nil {
		config.Storage = *c.Storage
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.SharedKeyBytes != nil {
		config.SharedKeyBytes = *c.SharedKeyBytes
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.LogLevel != nil {
		config.LogLevel = *c.LogLevel
	}
}
