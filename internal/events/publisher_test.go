package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/example/volunteer-scheduler/internal/application"
)

type connStub struct {
	msgs []*nats.Msg
	err  error
}

func (c *connStub) PublishMsg(msg *nats.Msg) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msg)
	return nil
}

func newTestPublisher(conn MsgPublisher) *Publisher {
	p := NewPublisher(conn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return time.Date(2024, time.June, 1, 10, 0, 0, 0, time.UTC) }
	p.newID = func() string { return "evt-1" }
	return p
}

func TestPublisher_BookingCreated(t *testing.T) {
	conn := &connStub{}
	booking := application.Booking{
		ID:          "b1",
		SessionID:   "s1",
		SessionType: application.SessionTypeRoutineAvailable,
		Date:        "2024-06-01",
		UserID:      "u1",
		UserName:    "Alice",
		UserEmail:   "alice@example.com",
		BookedAt:    time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC),
	}

	if err := newTestPublisher(conn).BookingCreated(context.Background(), booking); err != nil {
		t.Fatalf("BookingCreated returned error: %v", err)
	}
	if len(conn.msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(conn.msgs))
	}

	msg := conn.msgs[0]
	if msg.Subject != SubjectBookingCreated {
		t.Fatalf("unexpected subject %q", msg.Subject)
	}
	if msg.Header.Get(nats.MsgIdHdr) != "evt-1" {
		t.Fatalf("expected dedupe header, got %v", msg.Header)
	}

	var event BookingEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if event.EventType != SubjectBookingCreated || event.BookingID != "b1" || event.SessionType != "ROUTINE_AVAILABLE" || event.UserName != "Alice" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestPublisher_BookingCancelledPropagatesErrors(t *testing.T) {
	conn := &connStub{err: nats.ErrConnectionClosed}

	err := newTestPublisher(conn).BookingCancelled(context.Background(), application.Booking{ID: "b1"})
	if !errors.Is(err, nats.ErrConnectionClosed) {
		t.Fatalf("expected connection error, got %v", err)
	}
}
