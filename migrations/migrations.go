// Package migrations embeds the engine's schema migrations for use with
// pg.Migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
