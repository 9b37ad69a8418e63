package model

import "time"

// Booking records a reservation of one or more seats on the bus for a
// single travel date, made against a passenger's mobile number. All
// quota and conflict rules are scoped to the travel date: the same seat
// may be booked by different parties on different dates.
//
// Fields:
//  ID           - unique booking identifier, immutable after creation.
//  TravelDate   - calendar date in "YYYY-MM-DD" form, no time component.
//  MobileNumber - exactly ten digits; identifies the booking party.
//  Seats        - one to six distinct seat identifiers, kept sorted by
//                 linear position for determinism.
//  IsBoarded    - whether the party has boarded; false at creation.
//  CreatedAt    - creation timestamp (UTC).
//  UpdatedAt    - refreshed on every mutation (UTC).
type Booking struct {
	ID           string    `json:"booking_id"`
	TravelDate   string    `json:"travel_date"`
	MobileNumber string    `json:"mobile_number"`
	Seats        []string  `json:"seats"`
	IsBoarded    bool      `json:"is_boarded"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can never mutate ledger state
// through a returned booking.
func (b Booking) Clone() Booking {
	cp := b
	cp.Seats = append([]string(nil), b.Seats...)
	return cp
}
