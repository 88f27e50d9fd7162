package sqlite

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/volunteer-scheduler/internal/persistence"
	"github.com/example/volunteer-scheduler/internal/persistence/storetest"
)

func openPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := NewConnectionPool(DefaultConfig(filepath.Join(t.TempDir(), "volunteer.db")))
	if err != nil {
		t.Fatalf("NewConnectionPool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if _, err := Migrate(context.Background(), pool, logger); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return pool
}

func TestDocumentStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.DocumentStore {
		return NewDocumentStore(openPool(t))
	})
}

func TestDocumentStore_PersistsAcrossPools(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "volunteer.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pool, err := NewConnectionPool(DefaultConfig(path))
	if err != nil {
		t.Fatalf("NewConnectionPool: %v", err)
	}
	if _, err := Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	id, err := NewDocumentStore(pool).Insert(ctx, persistence.CollectionSessions, persistence.Fields{"date": "2024-06-01"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	_ = pool.Close()

	reopened, err := NewConnectionPool(DefaultConfig(path))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	applied, err := Migrate(ctx, reopened, logger)
	if err != nil {
		t.Fatalf("Migrate after reopen: %v", err)
	}
	if applied != 0 {
		t.Fatalf("expected schema to be current, %d migrations ran", applied)
	}

	doc, err := NewDocumentStore(reopened).Get(ctx, persistence.CollectionSessions, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Get("date") != "2024-06-01" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestDocumentStore_DuplicateIDIsConstraintViolation(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	store := NewDocumentStoreWithClock(openPool(t), func() string { return "same" }, func() time.Time { return fixed })

	if _, err := store.Insert(ctx, persistence.CollectionBookings, persistence.Fields{"sessionId": "s1"}); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	_, err := store.Insert(ctx, persistence.CollectionBookings, persistence.Fields{"sessionId": "s2"})
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}

	// Same id in another collection is allowed.
	if _, err := store.Insert(ctx, persistence.CollectionSessions, persistence.Fields{"date": "2024-06-01"}); err != nil {
		t.Fatalf("Insert into other collection: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default is valid", mutate: func(*Config) {}},
		{name: "empty path", mutate: func(c *Config) { c.Path = " " }, wantErr: true},
		{name: "bad journal mode", mutate: func(c *Config) { c.JournalMode = "FAST" }, wantErr: true},
		{name: "bad synchronous", mutate: func(c *Config) { c.Synchronous = "SOMETIMES" }, wantErr: true},
		{name: "negative pool", mutate: func(c *Config) { c.MaxOpenConns = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("data/volunteer.db")
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
