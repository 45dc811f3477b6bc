// Package database embeds the goose SQL migrations so the binary can migrate
// without the source tree on disk.
package database

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
