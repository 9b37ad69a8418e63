package model

import "sort"

// The bus has a fixed layout of 15 rows (A through O) with 4 seats per
// row (1 through 4). A seat identifier is the row letter followed by the
// column number, e.g. "C3". The linear position of a seat counts seats
// row by row from the entrance and is used only to order boarding; it is
// never stored.
const (
	SeatRows           = 15 // rows A..O
	SeatColumns        = 4  // columns 1..4
	TotalSeats         = SeatRows * SeatColumns
	MaxSeatsPerBooking = 6 // per booking and per (mobile, date) quota
)

// ParseSeat splits a seat identifier into its zero-based row index and
// one-based column number. It returns false when the identifier does not
// name a seat on the bus.
func ParseSeat(id string) (row int, col int, ok bool) {
	if len(id) != 2 {
		return 0, 0, false
	}
	r := id[0]
	c := id[1]
	if r < 'A' || r >= 'A'+SeatRows {
		return 0, 0, false
	}
	if c < '1' || c > '0'+SeatColumns {
		return 0, 0, false
	}
	return int(r - 'A'), int(c - '0'), true
}

// IsValidSeat reports whether id names a seat on the bus.
func IsValidSeat(id string) bool {
	_, _, ok := ParseSeat(id)
	return ok
}

// SeatPosition returns the linear, row-major position of a seat
// (0 for "A1" up to 59 for "O4"), or -1 for an invalid identifier.
// Higher positions are farther from the entrance.
func SeatPosition(id string) int {
	row, col, ok := ParseSeat(id)
	if !ok {
		return -1
	}
	return row*SeatColumns + (col - 1)
}

// SortSeats orders seat identifiers by their linear position in place and
// returns the slice. Bookings store their seats in this order so that
// repeated reads and snapshots are deterministic.
func SortSeats(seats []string) []string {
	sort.Slice(seats, func(i, j int) bool {
		return SeatPosition(seats[i]) < SeatPosition(seats[j])
	})
	return seats
}

// AllSeats returns every seat identifier on the bus in linear order.
func AllSeats() []string {
	out := make([]string, 0, TotalSeats)
	for r := 0; r < SeatRows; r++ {
		for c := 1; c <= SeatColumns; c++ {
			out = append(out, string(rune('A'+r))+string(rune('0'+c)))
		}
	}
	return out
}
