// Package handler contains the HTTP handlers of the API. Handlers bind
// and validate transport-level input, call into the ledger or sequencer,
// and translate errors to HTTP statuses; all booking rules live in the
// ledger package.
package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
