package sqlite

import (
	"context"
	"embed"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/example/volunteer-scheduler/internal/persistence/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// NewMigrationRunner prepares the embedded schema migrations for the pool.
func NewMigrationRunner(cp *ConnectionPool, logger *slog.Logger) (*migration.Runner, error) {
	return migration.NewRunner(sqlx.NewDb(cp.db, "sqlite"), migrationFiles, "migrations", logger)
}

// Migrate applies pending schema migrations and returns how many ran.
func Migrate(ctx context.Context, cp *ConnectionPool, logger *slog.Logger) (int, error) {
	runner, err := NewMigrationRunner(cp, logger)
	if err != nil {
		return 0, err
	}
	return runner.Run(ctx)
}
