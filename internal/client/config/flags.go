package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/flagx"
)

// parseFlags overlays cfg with command-line flags. See the package doc for
// the list. It panics on malformed values.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgsBool(os.Args[1:],
		[]string{"-s", "-k", "-d", "-e", "-r", "-g", "-w", "-f", "-t", "-l"},
		[]string{"-discover", "-demo"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Storage, "s", cfg.Storage, "storage: memory, local or remote")
	fs.StringVar(&cfg.KeystoreURL, "k", cfg.KeystoreURL, "keystore server url")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "sqlite database file")
	fs.StringVar(&cfg.ExplorerURL, "e", cfg.ExplorerURL, "block explorer url")
	fs.StringVar(&cfg.RatesURL, "r", cfg.RatesURL, "exchange rate service url")
	fs.StringVar(&cfg.SignerURL, "g", cfg.SignerURL, "transaction signer url")
	fs.StringVar(&cfg.FeedURL, "w", cfg.FeedURL, "explorer websocket url")
	fs.StringVar(&cfg.Fiat, "f", cfg.Fiat, "fiat currency")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.BoolVar(&cfg.Discover, "discover", cfg.Discover, "discover used addresses after login")
	fs.BoolVar(&cfg.Demo, "demo", cfg.Demo, "offline wallet with fake funds")
	stageTimeout := fs.Int("t", int(cfg.StageTimeout.Seconds()), "payment stage timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.StageTimeout = time.Duration(*stageTimeout) * time.Second
}
