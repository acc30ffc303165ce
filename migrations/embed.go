// Package migrations embeds the Postgres schema applied at startup.
package migrations

import "embed"

// FS holds the *.up.sql files.
//
//go:embed *.up.sql
var FS embed.FS
