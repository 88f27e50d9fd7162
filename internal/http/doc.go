// Package http exposes the volunteer calendar over JSON.
//
// Public endpoints:
//   - GET /healthz: liveness.
//   - POST /register: {"name","email","password"} creates an account.
//   - POST /login: {"email","password"} returns {"token","expires_at","user"}.
//
// Endpoints below require an "Authorization: Bearer <token>" header. Each user
// drives their own calendar controller, kept in a ControllerRegistry.
//   - GET /calendar: reloads sessions and returns the snapshot plus the legend.
//   - GET /calendar.ics: the session markers as an iCalendar feed.
//   - GET /calendar/state: the current snapshot.
//   - POST /calendar/tap: {"date":"YYYY-MM-DD"} selects the session on a date.
//   - POST /calendar/book, /calendar/cancel, /calendar/close: detail actions.
//
// Actions that are not valid in the current state answer 409, invalid input
// answers 422 with a field map, and missing or bad tokens answer 401.
package http
