// Package migration applies versioned SQL migrations embedded in the binary.
//
// Migration files follow the {version}_{description}.sql naming convention
// and are applied in ascending numeric order. Each applied version is
// recorded in the schema_migrations table together with a checksum of the
// file so that edits to already applied migrations are detected.
//
// The runner is shared by the SQLite and PostgreSQL stores; placeholders are
// rebound per driver through sqlx.
package migration
