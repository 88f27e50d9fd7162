package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/example/volunteer-scheduler/internal/application"
	"github.com/example/volunteer-scheduler/internal/calendar"
)

// ControllerRegistry keeps one calendar controller per user.
//
// Controllers unused for longer than the idle window are dropped on the next
// lookup, unless an action is still in flight.
type ControllerRegistry struct {
	factory func() *application.Controller
	idle    time.Duration
	now     func() time.Time

	mu          sync.Mutex
	controllers map[string]*registryEntry
}

type registryEntry struct {
	ctrl     *application.Controller
	lastUsed time.Time
}

// NewControllerRegistry builds controllers on first use with factory and never evicts them.
func NewControllerRegistry(factory func() *application.Controller) *ControllerRegistry {
	return NewControllerRegistryWithExpiry(factory, 0, time.Now)
}

// NewControllerRegistryWithExpiry evicts controllers idle for longer than idle.
// A zero idle disables eviction.
func NewControllerRegistryWithExpiry(factory func() *application.Controller, idle time.Duration, now func() time.Time) *ControllerRegistry {
	if now == nil {
		now = time.Now
	}
	return &ControllerRegistry{
		factory:     factory,
		idle:        idle,
		now:         now,
		controllers: make(map[string]*registryEntry),
	}
}

// For returns the controller owned by userID.
func (r *ControllerRegistry) For(userID string) *application.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evictIdleLocked(now, userID)

	entry, ok := r.controllers[userID]
	if !ok {
		entry = &registryEntry{ctrl: r.factory()}
		r.controllers[userID] = entry
	}
	entry.lastUsed = now
	return entry.ctrl
}

// Len reports how many controllers are held.
func (r *ControllerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.controllers)
}

func (r *ControllerRegistry) evictIdleLocked(now time.Time, keep string) {
	if r.idle <= 0 {
		return
	}
	for userID, entry := range r.controllers {
		if userID == keep || now.Sub(entry.lastUsed) <= r.idle {
			continue
		}
		if _, busy := entry.ctrl.Snapshot().State.(application.Submitting); busy {
			continue
		}
		delete(r.controllers, userID)
	}
}

// CalendarHandler exposes the calendar detail flow of the authenticated user.
type CalendarHandler struct {
	registry  *ControllerRegistry
	directory application.SessionLoader
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewCalendarHandler(registry *ControllerRegistry, directory application.SessionLoader, logger *slog.Logger) *CalendarHandler {
	return NewCalendarHandlerWithClock(registry, directory, time.Now, logger)
}

func NewCalendarHandlerWithClock(registry *ControllerRegistry, directory application.SessionLoader, now func() time.Time, logger *slog.Logger) *CalendarHandler {
	base := defaultLogger(logger)
	if now == nil {
		now = time.Now
	}
	return &CalendarHandler{registry: registry, directory: directory, now: now, responder: newResponder(base), logger: base}
}

func (h *CalendarHandler) controller(w http.ResponseWriter, r *http.Request) (*application.Controller, bool) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeJSON(r.Context(), w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_MISSING_TOKEN",
			Message:   statusMessage(http.StatusUnauthorized),
		})
		return nil, false
	}
	return h.registry.For(principal.UserID), true
}

// Calendar reloads the marker index and returns it with the legend.
func (h *CalendarHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	snap := ctrl.Load(r.Context())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, calendarResponse{
		snapshotResponse: toSnapshotResponse(snap),
		Legend:           toLegendDTOs(application.Legend()),
	})
}

// Feed serves the marker index as an iCalendar document.
func (h *CalendarHandler) Feed(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r.Context(), h.logger, "CalendarHandler", "Feed")
	index, err := h.directory.LoadAll(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to load sessions for feed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	var body bytes.Buffer
	if err := calendar.Encode(&body, index, h.now(), logger); err != nil {
		logger.ErrorContext(r.Context(), "failed to encode feed", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="volunteer-sessions.ics"`)
	if _, err := body.WriteTo(w); err != nil {
		logger.WarnContext(r.Context(), "failed to write feed", "error", err)
	}
}

// State returns the current controller snapshot without touching the store.
func (h *CalendarHandler) State(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSnapshotResponse(ctrl.Snapshot()))
}

// Tap selects the session on the requested date.
func (h *CalendarHandler) Tap(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}

	var req tapRequest
	if err := decodeJSON(r, &req); err != nil {
		handlerLogger(r.Context(), h.logger, "CalendarHandler", "Tap", "error_kind", "bad_request").
			ErrorContext(r.Context(), "failed to decode tap request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if err := application.Validate(req); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.respond(w, r, "Tap", func(ctx context.Context) (application.Snapshot, error) {
		return ctrl.TapDate(ctx, req.Date)
	}, "date", req.Date)
}

// Book books the selected session.
func (h *CalendarHandler) Book(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.respond(w, r, "Book", ctrl.Book)
}

// Cancel cancels the booking for the selected session.
func (h *CalendarHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.respond(w, r, "Cancel", ctrl.Cancel)
}

// Close dismisses the detail view.
func (h *CalendarHandler) Close(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSnapshotResponse(ctrl.Close()))
}

func (h *CalendarHandler) respond(w http.ResponseWriter, r *http.Request, operation string, fn func(context.Context) (application.Snapshot, error), attrs ...any) {
	logger := handlerLogger(r.Context(), h.logger, "CalendarHandler", operation, attrs...)
	snap, err := fn(r.Context())
	if err != nil {
		logger.WarnContext(r.Context(), "calendar action rejected", "error", err, "error_kind", application.ErrorKind(err), "state", snap.State.Name())
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	logger.DebugContext(r.Context(), "calendar action applied", "state", snap.State.Name())
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSnapshotResponse(snap))
}

type tapRequest struct {
	Date string `json:"date" validate:"required"`
}

type sessionDTO struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Type        string `json:"session_type"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

type markerDTO struct {
	Date        string     `json:"date"`
	SessionType string     `json:"session_type"`
	Color       string     `json:"color"`
	Session     sessionDTO `json:"session"`
}

type noticeDTO struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type legendDTO struct {
	SessionType string `json:"session_type"`
	Label       string `json:"label"`
	Color       string `json:"color"`
}

type snapshotResponse struct {
	State      string      `json:"state"`
	Action     string      `json:"action,omitempty"`
	Loading    bool        `json:"loading"`
	Session    *sessionDTO `json:"session,omitempty"`
	HasBooking *bool       `json:"has_booking,omitempty"`
	Markers    []markerDTO `json:"markers"`
	Notice     *noticeDTO  `json:"notice,omitempty"`
}

type calendarResponse struct {
	snapshotResponse
	Legend []legendDTO `json:"legend"`
}

func toSessionDTO(s application.Session) sessionDTO {
	return sessionDTO{
		ID:          s.ID,
		Date:        s.Date,
		Type:        string(s.Type),
		Label:       application.LabelFor(s.Type),
		Description: s.Description,
	}
}

func toSnapshotResponse(snap application.Snapshot) snapshotResponse {
	resp := snapshotResponse{
		State:   snap.State.Name(),
		Loading: snap.Loading,
		Markers: make([]markerDTO, 0, len(snap.Markers)),
	}
	if sub, ok := snap.State.(application.Submitting); ok {
		resp.Action = string(sub.Action)
	}
	if session, has, ok := snap.Selected(); ok {
		dto := toSessionDTO(session)
		resp.Session = &dto
		resp.HasBooking = &has
	}
	for _, date := range snap.Markers.Dates() {
		m := snap.Markers[date]
		resp.Markers = append(resp.Markers, markerDTO{
			Date:        date,
			SessionType: string(m.SessionType),
			Color:       string(m.Color),
			Session:     toSessionDTO(m.Session),
		})
	}
	if snap.Notice != nil {
		resp.Notice = &noticeDTO{Kind: string(snap.Notice.Kind), Title: snap.Notice.Title, Message: snap.Notice.Message}
	}
	return resp
}

func toLegendDTOs(entries []application.LegendEntry) []legendDTO {
	out := make([]legendDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, legendDTO{SessionType: string(e.Type), Label: e.Label, Color: string(e.Color)})
	}
	return out
}
