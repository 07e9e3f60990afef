package migrate

import "embed"

// Migrations holds the SQL files compiled into every binary.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// EmbeddedDir is the path of the migrations inside Migrations.
const EmbeddedDir = "migrations"
