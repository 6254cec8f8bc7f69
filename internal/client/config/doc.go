// Package config loads runtime configuration for the wallet CLI.
//
// Sources, later ones win:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags.
//
// Flags
//
//	-s string    storage: memory, local or remote
//	-k string    keystore server URL (remote storage)
//	-d string    SQLite file (local storage)
//	-e string    block explorer URL
//	-r string    exchange rate service URL
//	-g string    transaction signer URL
//	-w string    explorer websocket URL, "" to disable
//	-f string    fiat currency
//	-t int       per-stage payment timeout (seconds)
//	-l string    log level
//	-discover    scan for used addresses after login (default true)
//	-demo        use an offline wallet with fake funds
//
// # JSON schema
//
//	{
//	  "storage": "remote",
//	  "keystore_url": "https://keystore.example.com",
//	  "db_path": "coinkeeper.db",
//	  "explorer_url": "https://explorer.example.com",
//	  "rates_url": "https://rates.example.com",
//	  "signer_url": "https://explorer.example.com",
//	  "feed_url": "wss://explorer.example.com/ws",
//	  "discover": true,
//	  "demo": false,
//	  "fiat": "usd",
//	  "stage_timeout": "15s",
//	  "http_timeout": "30s",
//	  "log_level": "warn"
//	}
package config
