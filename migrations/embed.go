// Package migrations holds the PostgreSQL schema for the count service.
package migrations

import "embed"

// FS contains every *.up.sql and *.down.sql migration file.
//
//go:embed *.sql
var FS embed.FS
