package application

import (
	"context"
	"sort"
	"time"
)

// SessionType classifies a scheduled session and drives its calendar color.
type SessionType string

const (
	SessionTypeRoutineAvailable  SessionType = "ROUTINE_AVAILABLE"
	SessionTypeChangeSchedule    SessionType = "CHANGE_SCHEDULE"
	SessionTypeNewCompetitions   SessionType = "NEW_COMPETITIONS"
	SessionTypeOtherVolunteering SessionType = "OTHER_VOLUNTEERING"
	SessionTypeRoutineOverbooked SessionType = "ROUTINE_OVERBOOKED"
)

// SessionTypes lists the known types in legend order.
var SessionTypes = []SessionType{
	SessionTypeRoutineAvailable,
	SessionTypeChangeSchedule,
	SessionTypeNewCompetitions,
	SessionTypeOtherVolunteering,
	SessionTypeRoutineOverbooked,
}

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	for _, known := range SessionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// DateLayout is the calendar date format used for session placement.
const DateLayout = "2006-01-02"

// Session is one scheduled activity occurrence.
type Session struct {
	ID          string
	Date        string
	Type        SessionType
	Description string
}

// Booking is a point-in-time snapshot of a user's commitment to a session.
// Session and user fields are copied when the booking is made and never
// refreshed afterwards.
type Booking struct {
	ID          string
	SessionID   string
	SessionType SessionType
	Date        string
	Description string
	BookedAt    time.Time
	UserID      string
	UserName    string
	UserEmail   string
}

// Marker is the calendar projection of a session.
type Marker struct {
	SessionType SessionType
	Color       Color
	Session     Session
}

// MarkerIndex maps a calendar date to the marker shown on it.
type MarkerIndex map[string]Marker

// Lookup resolves a date to its marker.
func (idx MarkerIndex) Lookup(date string) (Marker, bool) {
	m, ok := idx[date]
	return m, ok
}

// Dates returns the indexed dates in ascending order.
func (idx MarkerIndex) Dates() []string {
	dates := make([]string, 0, len(idx))
	for date := range idx {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Clone returns an independent copy of the index.
func (idx MarkerIndex) Clone() MarkerIndex {
	out := make(MarkerIndex, len(idx))
	for date, m := range idx {
		out[date] = m
	}
	return out
}

// Principal identifies the authenticated user acting on the calendar.
type Principal struct {
	UserID string
	Email  string
}

// AuthProvider reports the current user, if any.
type AuthProvider interface {
	CurrentUser(ctx context.Context) (Principal, bool)
}

// AuthProviderFunc adapts a function to AuthProvider.
type AuthProviderFunc func(ctx context.Context) (Principal, bool)

// CurrentUser implements AuthProvider.
func (f AuthProviderFunc) CurrentUser(ctx context.Context) (Principal, bool) {
	return f(ctx)
}

// FixedPrincipal returns an AuthProvider that always reports p.
func FixedPrincipal(p Principal) AuthProvider {
	return AuthProviderFunc(func(context.Context) (Principal, bool) {
		return p, p.UserID != ""
	})
}

// User is a registered volunteer profile.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	Profile
}

// Profile holds the optional details collected at registration.
type Profile struct {
	Phone            string `validate:"max=30"`
	Sport            string `validate:"max=100"`
	AdditionalSports string `validate:"max=200"`
	UserType         string `validate:"max=50"`
}

// DefaultUserType is recorded when registration leaves the user type blank.
const DefaultUserType = "Athlete"

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is the transient outcome message of the last controller operation.
type Notice struct {
	Kind    NoticeKind
	Title   string
	Message string
}

var (
	noticeLoadFailed      = Notice{Kind: NoticeError, Title: "Error", Message: "Unable to fetch sessions."}
	noticeNoSession       = Notice{Kind: NoticeInfo, Title: "No session", Message: "No sessions scheduled on this date."}
	noticeStatusFailed    = Notice{Kind: NoticeError, Title: "Error", Message: "Unable to check your booking for this session."}
	noticeBooked          = Notice{Kind: NoticeSuccess, Title: "Success", Message: "You have successfully booked the session!"}
	noticeBookFailed      = Notice{Kind: NoticeError, Title: "Error", Message: "Failed to book the session. Please try again."}
	noticeNothingToCancel = Notice{Kind: NoticeError, Title: "Error", Message: "No booking found to cancel."}
	noticeCancelled       = Notice{Kind: NoticeSuccess, Title: "Cancelled", Message: "Your booking has been cancelled."}
	noticeCancelFailed    = Notice{Kind: NoticeError, Title: "Error", Message: "Failed to cancel booking. Please try again."}
)

// RegisterParams carries the fields of a new account.
type RegisterParams struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=128"`
	Profile
}

// LoginParams carries login credentials.
type LoginParams struct {
	Email    string
	Password string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// SessionInput carries the fields of a session created by an administrator.
type SessionInput struct {
	Date        string      `validate:"required,calendar_date"`
	Type        SessionType `validate:"required,session_type"`
	Description string      `validate:"max=500"`
}
