package migration

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    checksum TEXT NOT NULL,
    applied_at TEXT NOT NULL,
    execution_time_ms INTEGER NOT NULL
)`

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version         string `db:"version"`
	Description     string `db:"description"`
	Checksum        string `db:"checksum"`
	AppliedAt       string `db:"applied_at"`
	ExecutionTimeMS int64  `db:"execution_time_ms"`
}

// Status summarises applied and pending migrations.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// Runner applies migrations against one database.
type Runner struct {
	db         *sqlx.DB
	migrations []Migration
	logger     *slog.Logger
	now        func() time.Time
}

// NewRunner scans dir of fsys and prepares a runner for db. The sqlx handle
// carries the driver name so placeholders are rebound for the dialect.
func NewRunner(db *sqlx.DB, fsys fs.FS, dir string, logger *slog.Logger) (*Runner, error) {
	migrations, err := Scan(fsys, dir)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		db:         db,
		migrations: migrations,
		logger:     logger.With("component", "migration"),
		now:        time.Now,
	}, nil
}

// Migrations returns the scanned migrations in version order.
func (r *Runner) Migrations() []Migration {
	out := make([]Migration, len(r.migrations))
	copy(out, r.migrations)
	return out
}

// Run applies every pending migration in order, each in its own transaction,
// and returns how many were applied.
func (r *Runner) Run(ctx context.Context) (int, error) {
	status, err := r.Status(ctx)
	if err != nil {
		return 0, err
	}

	if len(status.Pending) == 0 {
		r.logger.InfoContext(ctx, "schema up to date", "version", status.CurrentVersion)
		return 0, nil
	}

	r.logger.InfoContext(ctx, "applying migrations",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)

	for i, m := range status.Pending {
		started := r.now()
		if err := r.apply(ctx, m, started); err != nil {
			r.logger.ErrorContext(ctx, "migration failed",
				"version", m.Version,
				"file", m.FileName,
				"error", err,
			)
			return i, newMigrationError(m.Version, m.FileName, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		r.logger.InfoContext(ctx, "migration applied",
			"version", m.Version,
			"description", m.Description,
			"duration", r.now().Sub(started),
		)
	}
	return len(status.Pending), nil
}

// Status reports applied and pending migrations. It fails when an applied
// migration no longer matches the embedded file.
func (r *Runner) Status(ctx context.Context) (Status, error) {
	if _, err := r.db.ExecContext(ctx, createVersionTable); err != nil {
		return Status{}, fmt.Errorf("migration: initialize version table: %w", err)
	}

	var applied []AppliedMigration
	query := `SELECT version, description, checksum, applied_at, execution_time_ms FROM schema_migrations`
	if err := r.db.SelectContext(ctx, &applied, query); err != nil {
		return Status{}, fmt.Errorf("migration: read applied versions: %w", err)
	}

	byVersion := make(map[int]AppliedMigration, len(applied))
	for _, a := range applied {
		byVersion[versionNumber(a.Version)] = a
	}

	status := Status{}
	for _, m := range r.migrations {
		a, ok := byVersion[versionNumber(m.Version)]
		if !ok {
			status.Pending = append(status.Pending, m)
			continue
		}
		if a.Checksum != m.Checksum {
			return Status{}, newMigrationError(m.Version, m.FileName, "verify checksum",
				fmt.Errorf("%w: recorded %s, file %s", ErrChecksumMismatch, a.Checksum, m.Checksum))
		}
		status.Applied = append(status.Applied, a)
		status.CurrentVersion = m.Version
	}
	return status, nil
}

func (r *Runner) apply(ctx context.Context, m Migration, started time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range splitStatements(m.SQL) {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute statement: %w", err)
		}
	}

	record := tx.Rebind(`INSERT INTO schema_migrations (version, description, checksum, applied_at, execution_time_ms) VALUES (?, ?, ?, ?, ?)`)
	elapsed := r.now().Sub(started).Milliseconds()
	if _, err = tx.ExecContext(ctx, record, m.Version, m.Description, m.Checksum, started.UTC().Format(time.RFC3339), elapsed); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
