package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/volunteer-scheduler/internal/config"
	"github.com/example/volunteer-scheduler/internal/persistence"
	"github.com/example/volunteer-scheduler/internal/persistence/memory"
	"github.com/example/volunteer-scheduler/internal/persistence/postgres"
	"github.com/example/volunteer-scheduler/internal/persistence/sqlite"
)

// backend is an opened document store with its schema brought up to date.
type backend struct {
	Store   persistence.DocumentStore
	Applied int
	Close   func() error
}

// openStore opens the configured backend and applies pending migrations.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (backend, error) {
	switch cfg.Store {
	case config.StoreMemory:
		logger.WarnContext(ctx, "using in-memory store; data is lost on exit")
		return backend{Store: memory.New(), Close: func() error { return nil }}, nil

	case config.StorePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return backend{}, err
		}
		applied, err := store.Migrate(ctx, logger)
		if err != nil {
			_ = store.Close()
			return backend{}, fmt.Errorf("migrate postgres: %w", err)
		}
		logger.InfoContext(ctx, "postgres store ready", "migrations_applied", applied)
		return backend{Store: store, Applied: applied, Close: store.Close}, nil

	default:
		pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.SQLitePath))
		if err != nil {
			return backend{}, err
		}
		applied, err := sqlite.Migrate(ctx, pool, logger)
		if err != nil {
			_ = pool.Close()
			return backend{}, fmt.Errorf("migrate sqlite: %w", err)
		}
		logger.InfoContext(ctx, "sqlite store ready", "path", cfg.SQLitePath, "migrations_applied", applied)
		return backend{Store: sqlite.NewDocumentStore(pool), Applied: applied, Close: pool.Close}, nil
	}
}

func closeStore(ctx context.Context, b backend, logger *slog.Logger) {
	if b.Close == nil {
		return
	}
	if err := b.Close(); err != nil {
		logger.ErrorContext(ctx, "failed to close store", "error", err)
	}
}
