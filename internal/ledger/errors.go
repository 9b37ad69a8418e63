// Package ledger holds the authoritative set of bookings for the bus and
// guarantees the seat-exclusivity and daily-quota invariants on every
// write. These error values let the transport layer distinguish a rule
// violation (400) from a missing booking (404) or an internal failure.
package ledger

import "errors"

// ErrBookingNotFound is returned by Update when the referenced booking
// does not exist. Delete and SetBoarded deliberately treat a missing id
// as a no-op instead.
var ErrBookingNotFound = errors.New("booking not found")

// ValidationError carries the first violated booking rule as a complete,
// human-readable sentence. The transport layer is expected to show the
// message verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// newValidationError wraps a message in a *ValidationError.
func newValidationError(msg string) error { return &ValidationError{Message: msg} }
