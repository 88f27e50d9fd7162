// Package storetest holds the behaviour every persistence.DocumentStore must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

// Opener returns a fresh, empty store for a single subtest.
type Opener func(t *testing.T) persistence.DocumentStore

// Run exercises the DocumentStore contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	t.Run("lists documents in insertion order", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		dates := []string{"2024-06-03", "2024-06-01", "2024-06-02"}
		ids := make([]string, 0, len(dates))
		for _, date := range dates {
			id, err := store.Insert(ctx, persistence.CollectionSessions, persistence.Fields{
				"date":        date,
				"sessionType": "ROUTINE_AVAILABLE",
			})
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			if id == "" {
				t.Fatalf("expected store-assigned id")
			}
			ids = append(ids, id)
		}

		docs, err := store.List(ctx, persistence.CollectionSessions)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(docs) != len(dates) {
			t.Fatalf("expected %d documents, got %d", len(dates), len(docs))
		}
		for i, doc := range docs {
			if doc.ID != ids[i] {
				t.Fatalf("document %d: expected id %q, got %q", i, ids[i], doc.ID)
			}
			if got := doc.Get("date"); got != dates[i] {
				t.Fatalf("document %d: expected date %q, got %q", i, dates[i], got)
			}
		}
	})

	t.Run("queries by equality on every predicate", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		insert := func(sessionID, userID string) string {
			t.Helper()
			id, err := store.Insert(ctx, persistence.CollectionBookings, persistence.Fields{
				"sessionId": sessionID,
				"userId":    userID,
			})
			if err != nil {
				t.Fatalf("Insert failed: %v", err)
			}
			return id
		}
		want := insert("s1", "u1")
		insert("s1", "u2")
		insert("s2", "u1")

		docs, err := store.Query(ctx, persistence.CollectionBookings,
			persistence.Eq("sessionId", "s1"),
			persistence.Eq("userId", "u1"),
		)
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(docs) != 1 || docs[0].ID != want {
			t.Fatalf("expected only %q, got %+v", want, docs)
		}

		none, err := store.Query(ctx, persistence.CollectionBookings, persistence.Eq("userId", "nobody"))
		if err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if len(none) != 0 {
			t.Fatalf("expected no matches, got %+v", none)
		}
	})

	t.Run("gets and deletes by id", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		id, err := store.Insert(ctx, persistence.CollectionUsers, persistence.Fields{"name": "Alice"})
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}

		doc, err := store.Get(ctx, persistence.CollectionUsers, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if doc.Get("name") != "Alice" {
			t.Fatalf("unexpected document: %+v", doc)
		}

		if err := store.DeleteByID(ctx, persistence.CollectionUsers, id); err != nil {
			t.Fatalf("DeleteByID failed: %v", err)
		}
		if _, err := store.Get(ctx, persistence.CollectionUsers, id); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteByID(ctx, persistence.CollectionUsers, id); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("returns copies that callers cannot mutate", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		fields := persistence.Fields{"name": "Before"}
		id, err := store.Insert(ctx, persistence.CollectionUsers, fields)
		if err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		fields["name"] = "Mutated"

		doc, err := store.Get(ctx, persistence.CollectionUsers, id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if doc.Get("name") != "Before" {
			t.Fatalf("store kept a reference to caller fields: %+v", doc)
		}
	})

	t.Run("rejects unknown collections", func(t *testing.T) {
		ctx := context.Background()
		store := open(t)

		if _, err := store.List(ctx, "event_locations"); !errors.Is(err, persistence.ErrUnknownCollection) {
			t.Fatalf("expected ErrUnknownCollection, got %v", err)
		}
		if _, err := store.Insert(ctx, "event_locations", persistence.Fields{}); !errors.Is(err, persistence.ErrUnknownCollection) {
			t.Fatalf("expected ErrUnknownCollection, got %v", err)
		}
	})
}
