package application

import (
	"context"
	"errors"
	"testing"
)

func TestDirectory_LoadAll(t *testing.T) {
	t.Parallel()

	t.Run("indexes every session by date with its color", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		first := store.seedSession("2024-06-01", SessionTypeRoutineAvailable)
		second := store.seedSession("2024-06-05", SessionTypeNewCompetitions)

		index, err := NewDirectory(store).LoadAll(context.Background())
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if len(index) != 2 {
			t.Fatalf("expected 2 markers, got %d", len(index))
		}

		marker, ok := index.Lookup("2024-06-01")
		if !ok || marker.Session.ID != first || marker.Color != ColorBlue || marker.SessionType != SessionTypeRoutineAvailable {
			t.Fatalf("unexpected marker for 2024-06-01: %+v", marker)
		}
		marker, ok = index.Lookup("2024-06-05")
		if !ok || marker.Session.ID != second || marker.Color != ColorGreen {
			t.Fatalf("unexpected marker for 2024-06-05: %+v", marker)
		}
	})

	t.Run("later session on the same date wins", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		store.seedSession("2024-06-01", SessionTypeRoutineAvailable)
		store.seedSession("2024-06-01", SessionTypeChangeSchedule)
		last := store.seedSession("2024-06-01", SessionTypeRoutineOverbooked)

		index, err := NewDirectory(store).LoadAll(context.Background())
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		marker := index["2024-06-01"]
		if marker.Session.ID != last || marker.Color != ColorOrange {
			t.Fatalf("expected last loaded session %s, got %+v", last, marker)
		}
		if len(index) != 1 {
			t.Fatalf("expected a single marker, got %d", len(index))
		}
	})

	t.Run("unknown type yields empty color", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		store.seedSession("2024-06-03", SessionType("BAKE_SALE"))

		index, err := NewDirectory(store).LoadAll(context.Background())
		if err != nil {
			t.Fatalf("LoadAll failed: %v", err)
		}
		if marker := index["2024-06-03"]; marker.Color != "" || marker.SessionType != "BAKE_SALE" {
			t.Fatalf("unexpected marker: %+v", marker)
		}
	})

	t.Run("fetch failure returns an empty index", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		store.seedSession("2024-06-01", SessionTypeRoutineAvailable)
		store.failList = errStoreDown

		index, err := NewDirectory(store).LoadAll(context.Background())
		if !errors.Is(err, errStoreDown) {
			t.Fatalf("expected store error, got %v", err)
		}
		if index == nil || len(index) != 0 {
			t.Fatalf("expected empty non-nil index, got %#v", index)
		}
		if store.count("List") != 1 {
			t.Fatalf("expected a single fetch without retry, got %d", store.count("List"))
		}
	})
}

func TestMarkerIndexDatesAreSorted(t *testing.T) {
	t.Parallel()

	index := BuildMarkerIndex([]Session{
		{ID: "b", Date: "2024-06-10"},
		{ID: "a", Date: "2024-06-02"},
	})
	dates := index.Dates()
	if len(dates) != 2 || dates[0] != "2024-06-02" || dates[1] != "2024-06-10" {
		t.Fatalf("unexpected dates: %v", dates)
	}
}
