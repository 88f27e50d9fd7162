package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/volunteer-scheduler/internal/persistence/sqlite"
)

// OpenSQLiteStore returns a migrated document store in a temporary database
// file that is removed when the test ends.
func OpenSQLiteStore(t testing.TB, ids *IDGenerator, clock *Clock) *sqlite.DocumentStore {
	t.Helper()

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(filepath.Join(t.TempDir(), "volunteer.db")))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if _, err := sqlite.Migrate(context.Background(), pool, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	var (
		nextID func() string
		now    func() time.Time
	)
	if ids != nil {
		nextID = ids.NextFunc()
	}
	if clock != nil {
		now = clock.NowFunc()
	}
	return sqlite.NewDocumentStoreWithClock(pool, nextID, now)
}
