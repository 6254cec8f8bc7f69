package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/coinkeeper/internal/flagx"
	"github.com/dmitrijs2005/coinkeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Pointer fields tell "absent"
// from the zero value so a partial file only overrides what it names.
type JsonConfig struct {
	Storage      *string         `json:"storage"`
	KeystoreURL  *string         `json:"keystore_url"`
	DBPath       *string         `json:"db_path"`
	ExplorerURL  *string         `json:"explorer_url"`
	RatesURL     *string         `json:"rates_url"`
	SignerURL    *string         `json:"signer_url"`
	FeedURL      *string         `json:"feed_url"`
	Discover     *bool           `json:"discover"`
	Demo         *bool           `json:"demo"`
	Fiat         *string         `json:"fiat"`
	StageTimeout *timex.Duration `json:"stage_timeout"`
	HTTPTimeout  *timex.Duration `json:"http_timeout"`
	LogLevel     *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config. It panics on
// read or decode errors.
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

	setString(&cfg.Storage, jc.Storage)
	setString(&cfg.KeystoreURL, jc.KeystoreURL)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.ExplorerURL, jc.ExplorerURL)
	setString(&cfg.RatesURL, jc.RatesURL)
	setString(&cfg.SignerURL, jc.SignerURL)
	setString(&cfg.FeedURL, jc.FeedURL)
	setString(&cfg.Fiat, jc.Fiat)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.Discover != nil {
		cfg.Discover = *jc.Discover
	}
	if jc.Demo != nil {
		cfg.Demo = *jc.Demo
	}
	if jc.StageTimeout != nil {
		cfg.StageTimeout = jc.StageTimeout.Duration
	}
	if jc.HTTPTimeout != nil {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
