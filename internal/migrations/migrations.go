// Package migrations embeds the SQL schema applied by dbmanager on startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
