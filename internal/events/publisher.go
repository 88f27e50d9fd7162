// Package events publishes booking ledger changes to NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/example/volunteer-scheduler/internal/application"
)

// Subjects used for booking events.
const (
	SubjectBookingCreated   = "booking.created"
	SubjectBookingCancelled = "booking.cancelled"
)

// BookingEvent is the JSON payload published for a ledger change.
type BookingEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	OccurredAt  time.Time `json:"occurred_at"`
	BookingID   string    `json:"booking_id"`
	SessionID   string    `json:"session_id"`
	SessionType string    `json:"session_type"`
	Date        string    `json:"date"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	BookedAt    time.Time `json:"booked_at"`
}

// MsgPublisher is the subset of *nats.Conn the publisher needs.
type MsgPublisher interface {
	PublishMsg(msg *nats.Msg) error
}

// Publisher implements application.BookingEvents over NATS.
type Publisher struct {
	conn   MsgPublisher
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

var _ application.BookingEvents = (*Publisher)(nil)

// NewPublisher wraps an existing connection.
func NewPublisher(conn MsgPublisher, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, now: time.Now, newID: uuid.NewString, logger: logger}
}

// Connect dials NATS and returns a publisher plus a function that drains the connection.
func Connect(url string, logger *slog.Logger) (*Publisher, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	nc, err := nats.Connect(url,
		nats.Name("volunteer-scheduler"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, func() {}, fmt.Errorf("events: connect nats: %w", err)
	}
	closeFn := func() {
		if err := nc.Drain(); err != nil {
			logger.Warn("nats drain failed", "error", err)
		}
	}
	return NewPublisher(nc, logger), closeFn, nil
}

// BookingCreated publishes a booking.created event.
func (p *Publisher) BookingCreated(ctx context.Context, booking application.Booking) error {
	return p.publish(ctx, SubjectBookingCreated, booking)
}

// BookingCancelled publishes a booking.cancelled event.
func (p *Publisher) BookingCancelled(ctx context.Context, booking application.Booking) error {
	return p.publish(ctx, SubjectBookingCancelled, booking)
}

func (p *Publisher) publish(ctx context.Context, subject string, booking application.Booking) error {
	event := NewBookingEvent(subject, booking, p.newID(), p.now())
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, event.EventID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(http.Header(msg.Header)))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("events: publish %s: %w", subject, err)
	}
	p.logger.DebugContext(ctx, "published booking event", "subject", subject, "booking_id", booking.ID)
	return nil
}

// NewBookingEvent builds the payload for subject.
func NewBookingEvent(subject string, booking application.Booking, eventID string, at time.Time) BookingEvent {
	return BookingEvent{
		EventID:     eventID,
		EventType:   subject,
		OccurredAt:  at.UTC(),
		BookingID:   booking.ID,
		SessionID:   booking.SessionID,
		SessionType: string(booking.SessionType),
		Date:        booking.Date,
		UserID:      booking.UserID,
		UserName:    booking.UserName,
		UserEmail:   booking.UserEmail,
		BookedAt:    booking.BookedAt.UTC(),
	}
}
