// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/transitdesk/busboard/internal/handler"
	"github.com/transitdesk/busboard/internal/middleware"
	"github.com/transitdesk/busboard/internal/utils"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check used by load balancers and
// monitoring.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the operator login endpoint under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST("/v1/auth/login", a.Login)
}

// RegisterAPI registers the protected booking, schedule and boarding
// routes under /v1. Every route requires a valid operator token. The
// cache middleware, when non-nil, is applied only to the derived
// boarding endpoints: their responses are recomputed from the ledger on
// each request and tolerate a few seconds of staleness, while booking
// reads must always reflect the latest write.
func RegisterAPI(e *echo.Echo, b *handler.BookingHandler, s *handler.ScheduleHandler, seq *handler.BoardingHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(utils.OperatorRole))

	// Mutation surface
	g.POST("/bookings", b.Create)
	g.PUT("/bookings/:id", b.Update)
	g.DELETE("/bookings/:id", b.Delete)
	g.POST("/bookings/:id/boarded", b.SetBoarded)

	// Query surface
	g.GET("/bookings/:id", b.Get)
	g.GET("/dates/:date/bookings", s.ListBookings)
	g.GET("/dates/:date/seats", s.SeatMap)
	g.GET("/dates/:date/mobiles/:mobile/seats", s.MobileSeatCount)

	// Derived surface
	if cache != nil {
		g.GET("/dates/:date/boarding-sequence", seq.Sequence, cache)
		g.GET("/dates/:date/boarding-sheet", seq.Sheet, cache)
	} else {
		g.GET("/dates/:date/boarding-sequence", seq.Sequence)
		g.GET("/dates/:date/boarding-sheet", seq.Sheet)
	}
}
