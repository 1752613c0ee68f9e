package postgres

import "embed"

// MigrationsFS embeds the goose migration scripts so the server binary can
// migrate without a checkout of the repository.
//
//go:embed migrations/*.sql
var MigrationsFS embed.FS

// MigrationsDir is the path of the migration scripts inside MigrationsFS.
const MigrationsDir = "migrations"
