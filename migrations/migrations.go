// Package migrations holds the PostgreSQL schema, embedded so the migrate
// command works without the source tree.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
