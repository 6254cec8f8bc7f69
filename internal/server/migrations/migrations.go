// Package migrations embeds the keystore Postgres schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
