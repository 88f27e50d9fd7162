package http_test

import (
	"context"
	"testing"
	"time"

	"github.com/example/volunteer-scheduler/internal/application"
	httpapi "github.com/example/volunteer-scheduler/internal/http"
	"github.com/example/volunteer-scheduler/internal/testfixtures"
)

type staticLoader application.MarkerIndex

func (l staticLoader) LoadAll(context.Context) (application.MarkerIndex, error) {
	return application.MarkerIndex(l), nil
}

// blockingLedger holds Book until release is closed.
type blockingLedger struct {
	started chan struct{}
	release chan struct{}
}

func (l *blockingLedger) HasBooking(context.Context, string, string) (bool, error) {
	return false, nil
}

func (l *blockingLedger) Book(ctx context.Context, session *application.Session, _ *application.Principal) (application.Booking, error) {
	close(l.started)
	<-l.release
	return application.Booking{SessionID: session.ID}, nil
}

func (l *blockingLedger) Cancel(context.Context, string, *application.Principal) (application.Booking, error) {
	return application.Booking{}, nil
}

func TestControllerRegistry_IdleExpiry(t *testing.T) {
	t.Run("idle controllers are replaced", func(t *testing.T) {
		clock := testfixtures.NewClock(testfixtures.ReferenceTime())
		registry := httpapi.NewControllerRegistryWithExpiry(func() *application.Controller {
			return application.NewController(staticLoader{}, &blockingLedger{}, nil)
		}, 10*time.Minute, clock.Now)

		alice := registry.For("alice")
		clock.Advance(5 * time.Minute)
		registry.For("bob")
		if registry.For("alice") != alice {
			t.Fatal("expected alice's controller to survive within the idle window")
		}

		clock.Advance(11 * time.Minute)
		registry.For("carol")
		if registry.Len() != 1 {
			t.Fatalf("expected idle controllers to be evicted, %d remain", registry.Len())
		}
		if registry.For("alice") == alice {
			t.Fatal("expected a fresh controller for alice after expiry")
		}
	})

	t.Run("zero idle keeps every controller", func(t *testing.T) {
		clock := testfixtures.NewClock(testfixtures.ReferenceTime())
		registry := httpapi.NewControllerRegistryWithExpiry(func() *application.Controller {
			return application.NewController(staticLoader{}, &blockingLedger{}, nil)
		}, 0, clock.Now)

		alice := registry.For("alice")
		clock.Advance(24 * time.Hour)
		registry.For("bob")
		if registry.Len() != 2 || registry.For("alice") != alice {
			t.Fatalf("expected no eviction, %d controllers held", registry.Len())
		}
	})

	t.Run("controllers with an action in flight are kept", func(t *testing.T) {
		clock := testfixtures.NewClock(testfixtures.ReferenceTime())
		index := application.BuildMarkerIndex([]application.Session{
			{ID: "s1", Date: "2024-06-01", Type: application.SessionTypeRoutineAvailable},
		})
		ledger := &blockingLedger{started: make(chan struct{}), release: make(chan struct{})}
		registry := httpapi.NewControllerRegistryWithExpiry(func() *application.Controller {
			return application.NewController(staticLoader(index), ledger, nil)
		}, time.Minute, clock.Now)

		alice := registry.For("alice")
		alice.Load(t.Context())
		if _, err := alice.TapDate(t.Context(), "2024-06-01"); err != nil {
			t.Fatalf("TapDate returned error: %v", err)
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = alice.Book(context.Background())
		}()
		<-ledger.started

		clock.Advance(time.Hour)
		registry.For("bob")
		if registry.Len() != 2 {
			t.Fatalf("expected the submitting controller to be kept, %d held", registry.Len())
		}

		close(ledger.release)
		<-done
		if registry.For("alice") != alice {
			t.Fatal("expected alice to keep the controller that booked")
		}
	})
}
