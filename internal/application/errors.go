package application

import "errors"

var (
	// ErrAlreadyExists is returned when a unique resource such as an account email is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when login credentials do not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrInvalidToken is returned when a bearer token is malformed, expired, or signed with another key.
	ErrInvalidToken = errors.New("application: invalid token")

	// ErrNoSessionSelected is returned when a booking is attempted without a session.
	ErrNoSessionSelected = errors.New("application: no session selected")
	// ErrNothingToCancel is returned when the acting user holds no booking for the session.
	ErrNothingToCancel = errors.New("application: nothing to cancel")
	// ErrInvalidTransition is returned when an action is not allowed from the controller's current state.
	ErrInvalidTransition = errors.New("application: invalid state transition")
	// ErrActionInFlight is returned when a book or cancel is requested while another one is pending.
	ErrActionInFlight = errors.New("application: action already in flight")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
