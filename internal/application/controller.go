package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// SessionLoader loads the calendar marker index.
type SessionLoader interface {
	LoadAll(ctx context.Context) (MarkerIndex, error)
}

// BookingLedger is the ledger contract the controller drives.
type BookingLedger interface {
	HasBooking(ctx context.Context, sessionID, userID string) (bool, error)
	Book(ctx context.Context, session *Session, actor *Principal) (Booking, error)
	Cancel(ctx context.Context, sessionID string, actor *Principal) (Booking, error)
}

// Action names the pending ledger mutation of a Submitting state.
type Action string

const (
	ActionBook   Action = "booking"
	ActionCancel Action = "cancelling"
)

// State is the detail view state. It is one of Closed, Viewing, or Submitting.
type State interface {
	Name() string
	isState()
}

// Closed means no session is selected.
type Closed struct{}

// Viewing shows a selected session and whether the user already booked it.
type Viewing struct {
	Session    Session
	HasBooking bool
}

// Submitting is a Viewing state with a book or cancel in flight.
type Submitting struct {
	Session    Session
	HasBooking bool
	Action     Action
}

func (Closed) Name() string     { return "closed" }
func (Viewing) Name() string    { return "viewing" }
func (Submitting) Name() string { return "submitting" }

func (Closed) isState()     {}
func (Viewing) isState()    {}
func (Submitting) isState() {}

// Snapshot is the observable controller state.
type Snapshot struct {
	Markers MarkerIndex
	Loading bool
	State   State
	Notice  *Notice
}

// Selected returns the selected session and its booking flag, if any.
func (s Snapshot) Selected() (Session, bool, bool) {
	switch st := s.State.(type) {
	case Viewing:
		return st.Session, st.HasBooking, true
	case Submitting:
		return st.Session, st.HasBooking, true
	}
	return Session{}, false, false
}

// Controller drives the calendar detail flow for one viewer.
//
// Transitions are serialized by mu, which is released while the store is
// called so Snapshot never blocks on I/O. Every change of selection bumps
// generation; a result that returns under an older generation only clears
// the in-flight flag and leaves state untouched.
type Controller struct {
	directory SessionLoader
	ledger    BookingLedger
	auth      AuthProvider
	logger    *slog.Logger

	mu         sync.Mutex
	markers    MarkerIndex
	loading    int
	loadSeq    uint64
	state      State
	generation uint64
	inFlight   bool
	notice     *Notice
}

// NewController constructs a Controller in the Closed state.
func NewController(directory SessionLoader, ledger BookingLedger, auth AuthProvider) *Controller {
	return NewControllerWithLogger(directory, ledger, auth, nil)
}

// NewControllerWithLogger constructs a Controller with a specified logger.
func NewControllerWithLogger(directory SessionLoader, ledger BookingLedger, auth AuthProvider, logger *slog.Logger) *Controller {
	if auth == nil {
		auth = AuthProviderFunc(func(context.Context) (Principal, bool) { return Principal{}, false })
	}
	return &Controller{
		directory: directory,
		ledger:    ledger,
		auth:      auth,
		logger:    defaultLogger(logger),
		markers:   MarkerIndex{},
		state:     Closed{},
	}
}

// Snapshot returns a copy of the observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Markers: c.markers.Clone(),
		Loading: c.loading > 0,
		State:   c.state,
	}
	if c.notice != nil {
		n := *c.notice
		snap.Notice = &n
	}
	return snap
}

// Load replaces the marker index with a fresh directory fetch. The loading
// flag stays set while any load is pending; only the newest load's result
// is applied.
func (c *Controller) Load(ctx context.Context) Snapshot {
	c.mu.Lock()
	c.loading++
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	index, err := c.directory.LoadAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading--
	if seq != c.loadSeq {
		return c.snapshotLocked()
	}
	if err != nil {
		c.markers = MarkerIndex{}
		c.setNotice(noticeLoadFailed)
		return c.snapshotLocked()
	}
	if index == nil {
		index = MarkerIndex{}
	}
	c.markers = index
	return c.snapshotLocked()
}

// TapDate selects the session scheduled on date and resolves whether the
// current user has booked it. Tapping a date without a session leaves the
// controller Closed with an informational notice.
func (c *Controller) TapDate(ctx context.Context, date string) (Snapshot, error) {
	c.mu.Lock()
	if _, ok := c.state.(Submitting); ok {
		c.mu.Unlock()
		return c.Snapshot(), ErrActionInFlight
	}

	c.generation++
	c.state = Closed{}
	marker, ok := c.markers.Lookup(date)
	if !ok {
		c.setNotice(noticeNoSession)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	gen := c.generation
	c.mu.Unlock()

	session := marker.Session
	principal, _ := c.auth.CurrentUser(ctx)
	logger := serviceLogger(ctx, c.logger, "Controller", "TapDate", "date", date, "session_id", session.ID)

	has, err := c.ledger.HasBooking(ctx, session.ID, principal.UserID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		logger.DebugContext(ctx, "discarding stale booking status")
		return c.snapshotLocked(), nil
	}
	if err != nil {
		logger.ErrorContext(ctx, "booking status query failed", "error", err, "error_kind", ErrorKind(err))
		c.setNotice(noticeStatusFailed)
		return c.snapshotLocked(), nil
	}
	c.state = Viewing{Session: session, HasBooking: has}
	c.notice = nil
	return c.snapshotLocked(), nil
}

// Book books the selected session. It is only valid while viewing a session
// the user has not booked.
func (c *Controller) Book(ctx context.Context) (Snapshot, error) {
	viewing, gen, err := c.begin(ActionBook)
	if err != nil {
		return c.Snapshot(), err
	}

	principal, ok := c.auth.CurrentUser(ctx)
	var actor *Principal
	if ok {
		actor = &principal
	}
	session := viewing.Session
	_, bookErr := c.ledger.Book(ctx, &session, actor)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if gen != c.generation {
		return c.snapshotLocked(), nil
	}
	if bookErr != nil {
		c.state = viewing
		c.setNotice(noticeBookFailed)
		return c.snapshotLocked(), nil
	}
	c.closeLocked()
	c.setNotice(noticeBooked)
	return c.snapshotLocked(), nil
}

// Cancel cancels the user's booking for the selected session. It is only
// valid while viewing a session the user has booked.
func (c *Controller) Cancel(ctx context.Context) (Snapshot, error) {
	viewing, gen, err := c.begin(ActionCancel)
	if err != nil {
		return c.Snapshot(), err
	}

	principal, ok := c.auth.CurrentUser(ctx)
	var actor *Principal
	if ok {
		actor = &principal
	}
	_, cancelErr := c.ledger.Cancel(ctx, viewing.Session.ID, actor)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	if gen != c.generation {
		return c.snapshotLocked(), nil
	}
	switch {
	case errors.Is(cancelErr, ErrNothingToCancel):
		c.state = viewing
		c.setNotice(noticeNothingToCancel)
	case cancelErr != nil:
		c.state = viewing
		c.setNotice(noticeCancelFailed)
	default:
		c.closeLocked()
		c.setNotice(noticeCancelled)
	}
	return c.snapshotLocked(), nil
}

// Close dismisses the selected session. Any pending result is ignored.
func (c *Controller) Close() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
	return c.snapshotLocked()
}

func (c *Controller) begin(action Action) (Viewing, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return Viewing{}, 0, ErrActionInFlight
	}
	viewing, ok := c.state.(Viewing)
	if !ok {
		return Viewing{}, 0, ErrInvalidTransition
	}
	if (action == ActionBook && viewing.HasBooking) || (action == ActionCancel && !viewing.HasBooking) {
		return Viewing{}, 0, ErrInvalidTransition
	}

	c.inFlight = true
	c.state = Submitting{Session: viewing.Session, HasBooking: viewing.HasBooking, Action: action}
	return viewing, c.generation, nil
}

func (c *Controller) closeLocked() {
	c.generation++
	c.state = Closed{}
}

func (c *Controller) setNotice(n Notice) {
	c.notice = &n
}
