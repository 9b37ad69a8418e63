// Package boarding computes the order in which reserved parties should
// board the bus. Boarding farthest-seated parties first means nobody's
// path is blocked by a not-yet-seated party in front of them, so all
// groups settle in parallel and the whole bus boards within one settle
// interval instead of one interval per group.
package boarding

import (
	"math"
	"sort"

	"github.com/transitdesk/busboard/internal/model"
)

// SettleDuration is the fixed time, in seconds, a party occupies from
// reaching its row until fully seated.
const SettleDuration = 60

// Entry is one position in the computed boarding order. It is derived
// from a date's bookings on every request and never persisted.
type Entry struct {
	Rank                  int           `json:"rank"`
	Booking               model.Booking `json:"booking"`
	Depth                 int           `json:"depth"`
	EstimatedBoardingTime int           `json:"estimated_boarding_time"`
}

// Metrics aggregates the timing figures that justify the ordering.
type Metrics struct {
	Groups                 int `json:"groups"`
	TotalBoardingTime      int `json:"total_boarding_time"`
	SequentialBoardingTime int `json:"sequential_boarding_time"`
	EfficiencyPercent      int `json:"efficiency_percent"`
}

// Depth returns the booking's distance from the entrance: the maximum
// linear position among its seats, i.e. the farthest seat the party must
// reach. A booking with no seats has depth -1 and sorts last.
func Depth(b model.Booking) int {
	depth := -1
	for _, s := range b.Seats {
		if p := model.SeatPosition(s); p > depth {
			depth = p
		}
	}
	return depth
}

// Sequence orders the bookings by strictly decreasing depth and assigns
// ranks 1..n. The sort is stable, so bookings of equal depth keep their
// input order and the result is deterministic for a fixed input. Each
// entry's estimated boarding time is the fixed settle duration, not a
// cumulative offset: under back-to-front boarding the groups settle
// concurrently.
func Sequence(bookings []model.Booking) []Entry {
	ordered := make([]model.Booking, len(bookings))
	copy(ordered, bookings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Depth(ordered[i]) > Depth(ordered[j])
	})
	entries := make([]Entry, 0, len(ordered))
	for i, b := range ordered {
		entries = append(entries, Entry{
			Rank:                  i + 1,
			Booking:               b.Clone(),
			Depth:                 Depth(b),
			EstimatedBoardingTime: SettleDuration,
		})
	}
	return entries
}

// TotalBoardingTime is the wall-clock boarding time under the optimal
// back-to-front order: one settle interval regardless of how many groups
// board, or zero when there is nothing to board.
func TotalBoardingTime(bookings []model.Booking) int {
	if len(bookings) == 0 {
		return 0
	}
	return SettleDuration
}

// SequentialBoardingTime is the naive baseline where exactly one group
// boards at a time.
func SequentialBoardingTime(bookings []model.Booking) int {
	return SettleDuration * len(bookings)
}

// EfficiencyPercent expresses the saving of the optimal order over the
// sequential baseline as a rounded percentage. It is zero when the
// sequential time is zero.
func EfficiencyPercent(sequential, optimal int) int {
	if sequential == 0 {
		return 0
	}
	return int(math.Round(float64(sequential-optimal) / float64(sequential) * 100))
}

// ComputeMetrics bundles the timing figures for a date's bookings.
func ComputeMetrics(bookings []model.Booking) Metrics {
	total := TotalBoardingTime(bookings)
	sequential := SequentialBoardingTime(bookings)
	return Metrics{
		Groups:                 len(bookings),
		TotalBoardingTime:      total,
		SequentialBoardingTime: sequential,
		EfficiencyPercent:      EfficiencyPercent(sequential, total),
	}
}
