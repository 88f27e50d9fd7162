package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

var fixedNow = time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)

func newTestLedger(store persistence.DocumentStore, events BookingEvents) *Ledger {
	return NewLedger(store, events, func() time.Time { return fixedNow })
}

func TestLedger_HasBooking(t *testing.T) {
	t.Parallel()

	t.Run("empty user returns false without querying", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		has, err := newTestLedger(store, nil).HasBooking(context.Background(), "s1", "")
		if err != nil || has {
			t.Fatalf("expected false, nil; got %v, %v", has, err)
		}
		if store.total() != 0 {
			t.Fatalf("expected no store calls, got %d", store.total())
		}
	})

	t.Run("matches on both session and user", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newStoreStub()
		ledger := newTestLedger(store, nil)
		if _, err := ledger.Book(ctx, &Session{ID: "s1", Date: "2024-06-01"}, &Principal{UserID: "u1"}); err != nil {
			t.Fatalf("Book failed: %v", err)
		}

		cases := []struct {
			session, user string
			want          bool
		}{
			{"s1", "u1", true},
			{"s1", "u2", false},
			{"s2", "u1", false},
		}
		for _, c := range cases {
			got, err := ledger.HasBooking(ctx, c.session, c.user)
			if err != nil {
				t.Fatalf("HasBooking failed: %v", err)
			}
			if got != c.want {
				t.Fatalf("HasBooking(%s, %s) = %v, want %v", c.session, c.user, got, c.want)
			}
		}
	})

	t.Run("store failure is returned", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		store.failQuery = errStoreDown
		if _, err := newTestLedger(store, nil).HasBooking(context.Background(), "s1", "u1"); !errors.Is(err, errStoreDown) {
			t.Fatalf("expected store error, got %v", err)
		}
	})
}

func TestLedger_Book(t *testing.T) {
	t.Parallel()

	t.Run("nil session writes nothing", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		_, err := newTestLedger(store, nil).Book(context.Background(), nil, &Principal{UserID: "u1"})
		if !errors.Is(err, ErrNoSessionSelected) {
			t.Fatalf("expected ErrNoSessionSelected, got %v", err)
		}
		if store.total() != 0 {
			t.Fatalf("expected no store calls, got %d", store.total())
		}
	})

	t.Run("snapshots session and profile fields", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newStoreStub()
		userID, err := store.Store.Insert(ctx, persistence.CollectionUsers, persistence.Fields{"name": "Alice"})
		if err != nil {
			t.Fatalf("seed user: %v", err)
		}
		events := &eventsStub{}

		session := &Session{ID: "s1", Date: "2024-06-01", Type: SessionTypeNewCompetitions, Description: "Regional meet"}
		booking, err := newTestLedger(store, events).Book(ctx, session, &Principal{UserID: userID, Email: "alice@example.com"})
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}

		doc, err := store.Store.Get(ctx, persistence.CollectionBookings, booking.ID)
		if err != nil {
			t.Fatalf("stored booking missing: %v", err)
		}
		want := persistence.Fields{
			"sessionId":   "s1",
			"sessionType": "NEW_COMPETITIONS",
			"date":        "2024-06-01",
			"description": "Regional meet",
			"bookedAt":    "2024-06-01T09:30:00Z",
			"userId":      userID,
			"userName":    "Alice",
			"userEmail":   "alice@example.com",
		}
		for k, v := range want {
			if got := doc.Get(k); got != v {
				t.Fatalf("field %s = %q, want %q", k, got, v)
			}
		}
		if len(events.created) != 1 || events.created[0].ID != booking.ID {
			t.Fatalf("expected one created event, got %+v", events.created)
		}
	})

	t.Run("falls back to placeholders", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newStoreStub()
		ledger := newTestLedger(store, nil)

		anonymous, err := ledger.Book(ctx, &Session{Date: "2024-06-01"}, nil)
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if anonymous.UserID != AnonymousUserID || anonymous.UserName != UnnamedVolunteer || anonymous.UserEmail != NoEmail || anonymous.SessionID != UnknownSessionID {
			t.Fatalf("unexpected anonymous booking: %+v", anonymous)
		}

		noProfile, err := ledger.Book(ctx, &Session{ID: "s1"}, &Principal{UserID: "ghost"})
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if noProfile.UserName != UnnamedVolunteer || noProfile.UserEmail != NoEmail {
			t.Fatalf("unexpected placeholders: %+v", noProfile)
		}
	})

	t.Run("profile lookup failure does not fail the booking", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		store.failGet = errStoreDown
		booking, err := newTestLedger(store, nil).Book(context.Background(), &Session{ID: "s1"}, &Principal{UserID: "u1"})
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if booking.UserName != UnnamedVolunteer {
			t.Fatalf("expected placeholder name, got %q", booking.UserName)
		}
	})

	t.Run("repeated book is not prevented", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newStoreStub()
		ledger := newTestLedger(store, nil)
		actor := &Principal{UserID: "u1"}
		session := &Session{ID: "s1", Date: "2024-06-01"}

		for i := 0; i < 2; i++ {
			if _, err := ledger.Book(ctx, session, actor); err != nil {
				t.Fatalf("Book %d failed: %v", i, err)
			}
		}
		if got := store.Len(persistence.CollectionBookings); got != 2 {
			t.Fatalf("expected duplicate window to allow 2 bookings, got %d", got)
		}
	})

	t.Run("insert failure is returned and no event published", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		store.failInsert = errStoreDown
		events := &eventsStub{}
		_, err := newTestLedger(store, events).Book(context.Background(), &Session{ID: "s1"}, &Principal{UserID: "u1"})
		if !errors.Is(err, errStoreDown) {
			t.Fatalf("expected store error, got %v", err)
		}
		if len(events.created) != 0 {
			t.Fatalf("expected no events, got %+v", events.created)
		}
	})

	t.Run("event failure is not returned", func(t *testing.T) {
		t.Parallel()

		events := &eventsStub{err: errors.New("nats down")}
		if _, err := newTestLedger(newStoreStub(), events).Book(context.Background(), &Session{ID: "s1"}, &Principal{UserID: "u1"}); err != nil {
			t.Fatalf("expected publish failure to be swallowed, got %v", err)
		}
	})
}

func TestLedger_Cancel(t *testing.T) {
	t.Parallel()

	t.Run("requires session and user", func(t *testing.T) {
		t.Parallel()

		store := newStoreStub()
		ledger := newTestLedger(store, nil)

		_, err := ledger.Cancel(context.Background(), "", nil)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.FieldErrors["session_id"] == "" || vErr.FieldErrors["user"] == "" {
			t.Fatalf("expected both fields reported, got %+v", vErr.FieldErrors)
		}
		if store.total() != 0 {
			t.Fatalf("expected no store calls, got %d", store.total())
		}
	})

	t.Run("nothing to cancel leaves ledger unchanged", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newStoreStub()
		ledger := newTestLedger(store, nil)
		if _, err := ledger.Book(ctx, &Session{ID: "s1"}, &Principal{UserID: "u2"}); err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		store.resetCalls()

		_, err := ledger.Cancel(ctx, "s1", &Principal{UserID: "u1"})
		if !errors.Is(err, ErrNothingToCancel) {
			t.Fatalf("expected ErrNothingToCancel, got %v", err)
		}
		if store.count("DeleteByID") != 0 || store.Len(persistence.CollectionBookings) != 1 {
			t.Fatalf("expected ledger unchanged")
		}
	})

	t.Run("round trip restores has booking to false", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		events := &eventsStub{}
		ledger := newTestLedger(newStoreStub(), events)
		actor := &Principal{UserID: "u1"}

		booked, err := ledger.Book(ctx, &Session{ID: "s1"}, actor)
		if err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		if has, _ := ledger.HasBooking(ctx, "s1", "u1"); !has {
			t.Fatalf("expected booking after Book")
		}

		cancelled, err := ledger.Cancel(ctx, "s1", actor)
		if err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if cancelled.ID != booked.ID {
			t.Fatalf("expected cancelled booking %s, got %s", booked.ID, cancelled.ID)
		}
		if has, _ := ledger.HasBooking(ctx, "s1", "u1"); has {
			t.Fatalf("expected no booking after Cancel")
		}
		if len(events.cancelled) != 1 {
			t.Fatalf("expected one cancelled event, got %d", len(events.cancelled))
		}
	})

	t.Run("deletes only the first duplicate", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newStoreStub()
		ledger := newTestLedger(store, nil)
		actor := &Principal{UserID: "u1"}

		first, _ := ledger.Book(ctx, &Session{ID: "s1"}, actor)
		second, _ := ledger.Book(ctx, &Session{ID: "s1"}, actor)

		cancelled, err := ledger.Cancel(ctx, "s1", actor)
		if err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if cancelled.ID != first.ID {
			t.Fatalf("expected first booking removed, got %s", cancelled.ID)
		}
		if _, err := store.Store.Get(ctx, persistence.CollectionBookings, second.ID); err != nil {
			t.Fatalf("expected duplicate to remain: %v", err)
		}
	})

	t.Run("delete failure is returned", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		store := newStoreStub()
		ledger := newTestLedger(store, nil)
		if _, err := ledger.Book(ctx, &Session{ID: "s1"}, &Principal{UserID: "u1"}); err != nil {
			t.Fatalf("Book failed: %v", err)
		}
		store.failDelete = errStoreDown

		if _, err := ledger.Cancel(ctx, "s1", &Principal{UserID: "u1"}); !errors.Is(err, errStoreDown) {
			t.Fatalf("expected store error, got %v", err)
		}
		if store.Len(persistence.CollectionBookings) != 1 {
			t.Fatalf("expected booking to remain")
		}
	})
}
