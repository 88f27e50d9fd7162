package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/example/volunteer-scheduler/internal/application"
	"github.com/example/volunteer-scheduler/internal/persistence"
	"github.com/example/volunteer-scheduler/internal/persistence/memory"
)

var referenceTime = time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// Session returns an unsaved session for seeding.
func Session(date string, sessionType application.SessionType, description string) application.Session {
	return application.Session{Date: date, Type: sessionType, Description: description}
}

// NewMemoryStore returns an empty memory store whose document ids come from ids.
func NewMemoryStore(ids *IDGenerator) *memory.Store {
	if ids == nil {
		return memory.New()
	}
	return memory.New(memory.WithIDGenerator(ids.NextFunc()))
}

// SeedSessions stores sessions in order through the catalog and returns them
// with their assigned ids.
func SeedSessions(t testing.TB, store persistence.DocumentStore, sessions ...application.Session) []application.Session {
	t.Helper()

	catalog := application.NewCatalog(store)
	out := make([]application.Session, 0, len(sessions))
	for _, s := range sessions {
		saved, err := catalog.AddSession(context.Background(), application.SessionInput{
			Date:        s.Date,
			Type:        s.Type,
			Description: s.Description,
		})
		if err != nil {
			t.Fatalf("seed session %s: %v", s.Date, err)
		}
		out = append(out, saved)
	}
	return out
}

// SeedProfile stores a user profile document and returns its id.
func SeedProfile(t testing.TB, store persistence.DocumentStore, name, email string) string {
	t.Helper()

	id, err := store.Insert(context.Background(), persistence.CollectionUsers, persistence.Fields{
		"name":  name,
		"email": email,
	})
	if err != nil {
		t.Fatalf("seed profile %s: %v", email, err)
	}
	return id
}
