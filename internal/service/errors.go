// Package service implements the community hub use cases on top of the
// repository interfaces.  Services return sentinel errors (wrapped with
// detail where useful) that handlers translate into HTTP statuses.
package service

import "errors"

var (
	// ErrUnauthenticated is returned when an action requires a signed-in user.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidBooking covers an empty title, an unparseable endpoint or
	// end <= start.
	ErrInvalidBooking = errors.New("invalid booking payload")
	// ErrBookingConflict is returned when the slot overlaps an existing booking.
	ErrBookingConflict = errors.New("time slot is already booked")
	// ErrInvalidEmail is returned when a message lacks recipients, subject or body.
	ErrInvalidEmail = errors.New("missing fields")
	// ErrInvalidPrompt is returned for an empty suggestion prompt.
	ErrInvalidPrompt = errors.New("prompt is required")
	// ErrInvalidInput is the generic validation failure for account and
	// event payloads.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned by Login and Refresh.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotConfigured is returned when an upstream collaborator has no
	// credentials.
	ErrNotConfigured = errors.New("service not configured")
)

// UpstreamError wraps a failure reported by an external collaborator (the
// SMTP relay, the generation API).  Its message is the upstream message,
// unchanged, so handlers can surface it verbatim.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }
