package migration

import "embed"

const migrationsDir = "migrations"

// Only forward migrations are embedded; rollback is handled by
// restoring from backup, not down scripts.
//
//go:embed migrations/*.up.sql
var embeddedMigrations embed.FS
