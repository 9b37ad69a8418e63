package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/transitdesk/busboard/internal/ledger"
)

// BookingHandler exposes the ledger's mutation surface and single-booking
// lookups. Validation failures surface as 400 with the ledger's message
// verbatim; the UI is expected to display it as-is.
type BookingHandler struct {
	Ledger *ledger.Ledger
}

// NewBookingHandler constructs a BookingHandler. The ledger must be
// non-nil.
func NewBookingHandler(l *ledger.Ledger) *BookingHandler {
	if l == nil {
		panic("nil ledger passed to NewBookingHandler")
	}
	return &BookingHandler{Ledger: l}
}

// persistenceWarning attaches a response header when the last snapshot
// write failed, so the operator knows the change may not survive a
// restart. The mutation itself still succeeded.
func (h *BookingHandler) persistenceWarning(c echo.Context) {
	if err := h.Ledger.LastSaveErr(); err != nil {
		c.Response().Header().Set("X-Persistence-Warning", "last snapshot write failed; recent changes may not survive a restart")
	}
}

// Create handles POST /v1/bookings. The body carries the travel date,
// the party's mobile number and the requested seats. On success it
// returns 201 with the reservation receipt.
func (h *BookingHandler) Create(c echo.Context) error {
	var body struct {
		TravelDate   string   `json:"travel_date"`
		MobileNumber string   `json:"mobile_number"`
		Seats        []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.Ledger.Create(c.Request().Context(), body.MobileNumber, body.TravelDate, body.Seats)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	h.persistenceWarning(c)
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":    b.ID,
		"travel_date":   b.TravelDate,
		"mobile_number": b.MobileNumber,
		"seats":         b.Seats,
		"created_at":    b.CreatedAt,
	})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	b, ok := h.Ledger.BookingByID(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Update handles PUT /v1/bookings/:id. Only the seat set can change;
// mobile number and travel date are immutable after creation.
func (h *BookingHandler) Update(c echo.Context) error {
	var body struct {
		Seats []string `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.Ledger.Update(c.Request().Context(), c.Param("id"), body.Seats)
	if err != nil {
		if errors.Is(err, ledger.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Message})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update booking"})
	}
	h.persistenceWarning(c)
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}

// Delete handles DELETE /v1/bookings/:id. Deletion is idempotent: an
// unknown id still answers 204.
func (h *BookingHandler) Delete(c echo.Context) error {
	h.Ledger.Delete(c.Request().Context(), c.Param("id"))
	h.persistenceWarning(c)
	return c.NoContent(http.StatusNoContent)
}

// SetBoarded handles POST /v1/bookings/:id/boarded with a body of
// {"boarded": true|false}. The ledger treats an unknown id as a no-op;
// the handler checks first so the API can still answer 404.
func (h *BookingHandler) SetBoarded(c echo.Context) error {
	var body struct {
		Boarded bool `json:"boarded"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	id := c.Param("id")
	if _, ok := h.Ledger.BookingByID(id); !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	h.Ledger.SetBoarded(c.Request().Context(), id, body.Boarded)
	b, _ := h.Ledger.BookingByID(id)
	h.persistenceWarning(c)
	return c.JSON(http.StatusOK, echo.Map{"item": b})
}
