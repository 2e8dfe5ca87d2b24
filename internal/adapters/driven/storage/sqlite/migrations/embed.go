// Package migrations embeds SQL migration files for the research store.
//
// Files are named NNN_name.up.sql and NNN_name.down.sql. Up migrations are
// applied in version order; every statement is idempotent.
package migrations

import "embed"

// FS contains all SQL migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
