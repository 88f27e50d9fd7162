package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/example/volunteer-scheduler/internal/persistence"
)

// Placeholders written into booking snapshots when data is missing.
const (
	AnonymousUserID  = "anonymous"
	UnnamedVolunteer = "Unnamed Volunteer"
	NoEmail          = "No Email"
	UnknownSessionID = "unknown"
)

// BookingEvents receives notifications about completed ledger mutations.
type BookingEvents interface {
	BookingCreated(ctx context.Context, booking Booking) error
	BookingCancelled(ctx context.Context, booking Booking) error
}

// Ledger creates, queries, and deletes bookings in the shared store.
//
// Uniqueness per (session, user) is not enforced here: Book does not check
// HasBooking first and concurrent callers can both insert.
type Ledger struct {
	store  persistence.DocumentStore
	events BookingEvents
	now    func() time.Time
	logger *slog.Logger
}

// NewLedger constructs a Ledger. events may be nil.
func NewLedger(store persistence.DocumentStore, events BookingEvents, now func() time.Time) *Ledger {
	return NewLedgerWithLogger(store, events, now, nil)
}

// NewLedgerWithLogger constructs a Ledger with a specified logger.
func NewLedgerWithLogger(store persistence.DocumentStore, events BookingEvents, now func() time.Time, logger *slog.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: store, events: events, now: now, logger: defaultLogger(logger)}
}

// HasBooking reports whether userID holds at least one booking for sessionID.
// An empty userID is reported as false without touching the store.
func (l *Ledger) HasBooking(ctx context.Context, sessionID, userID string) (has bool, err error) {
	if userID == "" {
		return false, nil
	}

	ctx, span := startSpan(ctx, "Ledger.HasBooking",
		attribute.String("session.id", sessionID),
		attribute.String("user.id", userID),
	)
	defer func() { endSpan(span, err) }()

	docs, err := l.store.Query(ctx, persistence.CollectionBookings,
		persistence.Eq(fieldSessionID, sessionID),
		persistence.Eq(fieldUserID, userID),
	)
	if err != nil {
		return false, fmt.Errorf("query bookings: %w", err)
	}
	return len(docs) > 0, nil
}

// Book inserts a booking snapshot of session for actor. A nil actor books as
// the anonymous user.
func (l *Ledger) Book(ctx context.Context, session *Session, actor *Principal) (booking Booking, err error) {
	if session == nil {
		return Booking{}, ErrNoSessionSelected
	}

	userID := AnonymousUserID
	email := NoEmail
	if actor != nil {
		if actor.UserID != "" {
			userID = actor.UserID
		}
		if strings.TrimSpace(actor.Email) != "" {
			email = actor.Email
		}
	}
	sessionID := session.ID
	if sessionID == "" {
		sessionID = UnknownSessionID
	}

	ctx, span := startSpan(ctx, "Ledger.Book",
		attribute.String("session.id", sessionID),
		attribute.String("user.id", userID),
	)
	logger := serviceLogger(ctx, l.logger, "Ledger", "Book", "session_id", sessionID, "user_id", userID)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "book session failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "session booked", "booking_id", booking.ID)
	}()

	booking = Booking{
		SessionID:   sessionID,
		SessionType: session.Type,
		Date:        session.Date,
		Description: session.Description,
		BookedAt:    l.now(),
		UserID:      userID,
		UserName:    l.lookupName(ctx, logger, userID),
		UserEmail:   email,
	}

	id, err := l.store.Insert(ctx, persistence.CollectionBookings, bookingFields(booking))
	if err != nil {
		return Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	booking.ID = id

	l.publish(ctx, logger, "created", booking)
	return booking, nil
}

// Cancel deletes the first booking actor holds for sessionID.
func (l *Ledger) Cancel(ctx context.Context, sessionID string, actor *Principal) (booking Booking, err error) {
	vErr := &ValidationError{}
	if strings.TrimSpace(sessionID) == "" {
		vErr.add("session_id", "is required")
	}
	if actor == nil || actor.UserID == "" {
		vErr.add("user", "must be signed in")
	}
	if vErr.HasErrors() {
		return Booking{}, vErr
	}

	ctx, span := startSpan(ctx, "Ledger.Cancel",
		attribute.String("session.id", sessionID),
		attribute.String("user.id", actor.UserID),
	)
	logger := serviceLogger(ctx, l.logger, "Ledger", "Cancel", "session_id", sessionID, "user_id", actor.UserID)
	defer func() {
		endSpan(span, err)
		if err != nil {
			logger.ErrorContext(ctx, "cancel booking failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "booking cancelled", "booking_id", booking.ID)
	}()

	docs, err := l.store.Query(ctx, persistence.CollectionBookings,
		persistence.Eq(fieldSessionID, sessionID),
		persistence.Eq(fieldUserID, actor.UserID),
	)
	if err != nil {
		return Booking{}, fmt.Errorf("query bookings: %w", err)
	}
	if len(docs) == 0 {
		return Booking{}, ErrNothingToCancel
	}

	// Only the first match is removed; duplicates from racing bookings remain.
	booking = bookingFromDocument(docs[0])
	if err := l.store.DeleteByID(ctx, persistence.CollectionBookings, booking.ID); err != nil {
		return Booking{}, fmt.Errorf("delete booking %s: %w", booking.ID, err)
	}

	l.publish(ctx, logger, "cancelled", booking)
	return booking, nil
}

// lookupName resolves the display name for a booking snapshot. Lookup
// failures fall back to the placeholder and never fail the booking.
func (l *Ledger) lookupName(ctx context.Context, logger *slog.Logger, userID string) string {
	if userID == AnonymousUserID {
		return UnnamedVolunteer
	}
	doc, err := l.store.Get(ctx, persistence.CollectionUsers, userID)
	if err != nil {
		logger.WarnContext(ctx, "profile lookup failed", "error", err, "error_kind", ErrorKind(err))
		return UnnamedVolunteer
	}
	if name := strings.TrimSpace(doc.Get(fieldName)); name != "" {
		return name
	}
	return UnnamedVolunteer
}

func (l *Ledger) publish(ctx context.Context, logger *slog.Logger, kind string, booking Booking) {
	if l.events == nil {
		return
	}
	var err error
	switch kind {
	case "created":
		err = l.events.BookingCreated(ctx, booking)
	case "cancelled":
		err = l.events.BookingCancelled(ctx, booking)
	}
	if err != nil {
		logger.WarnContext(ctx, "publish booking event failed", "event", kind, "error", err)
	}
}
