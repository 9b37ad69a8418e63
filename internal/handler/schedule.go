package handler

import (
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transitdesk/busboard/internal/ledger"
	"github.com/transitdesk/busboard/internal/model"
)

// ScheduleHandler exposes the ledger's per-date query surface: the
// booking list, the seat ownership map and the per-mobile quota check.
type ScheduleHandler struct {
	Ledger *ledger.Ledger
}

// NewScheduleHandler constructs a ScheduleHandler. The ledger must be
// non-nil.
func NewScheduleHandler(l *ledger.Ledger) *ScheduleHandler {
	if l == nil {
		panic("nil ledger passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Ledger: l}
}

var mobileParam = regexp.MustCompile(`^[0-9]{10}$`)

// dateParam validates the :date path parameter. Queries accept any
// calendar date, past ones included, so the operator can review history;
// only writes are restricted to today or later.
func dateParam(c echo.Context) (string, bool) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", false
	}
	return date, true
}

// ListBookings handles GET /v1/dates/:date/bookings. A date without
// bookings returns an empty items array.
func (h *ScheduleHandler) ListBookings(c echo.Context) error {
	date, ok := dateParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid travel date; expected YYYY-MM-DD"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"travel_date": date,
		"items":       h.Ledger.BookingsForDate(date),
	})
}

// SeatMap handles GET /v1/dates/:date/seats. It returns the ownership
// map (seat identifier to booking id) plus the free seats in linear
// order, which is exactly what a seat-grid display needs.
func (h *ScheduleHandler) SeatMap(c echo.Context) error {
	date, ok := dateParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid travel date; expected YYYY-MM-DD"})
	}
	owned := h.Ledger.SeatOwnership(date)
	free := make([]string, 0, model.TotalSeats-len(owned))
	for _, s := range model.AllSeats() {
		if _, taken := owned[s]; !taken {
			free = append(free, s)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"travel_date": date,
		"owned":       owned,
		"free":        free,
		"total_seats": model.TotalSeats,
	})
}

// MobileSeatCount handles GET /v1/dates/:date/mobiles/:mobile/seats. It
// reports how many seats the mobile number holds on the date and how
// many remain under the daily quota.
func (h *ScheduleHandler) MobileSeatCount(c echo.Context) error {
	date, ok := dateParam(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid travel date; expected YYYY-MM-DD"})
	}
	mobile := c.Param("mobile")
	if !mobileParam.MatchString(mobile) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid mobile number; expected exactly 10 digits"})
	}
	count := h.Ledger.SeatCountForMobile(mobile, date, "")
	remaining := model.MaxSeatsPerBooking - count
	if remaining < 0 {
		remaining = 0
	}
	return c.JSON(http.StatusOK, echo.Map{
		"travel_date":     date,
		"mobile_number":   mobile,
		"seat_count":      count,
		"remaining_quota": remaining,
	})
}
