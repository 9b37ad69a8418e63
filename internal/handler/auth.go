package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/transitdesk/busboard/internal/config"
	"github.com/transitdesk/busboard/internal/utils"
)

// AuthHandler authenticates the booking operator. There is no user
// table: a single operator credential is provisioned through the
// environment (login name plus bcrypt password hash) and successful
// logins receive a short-lived HS256 access token.
type AuthHandler struct {
	cfg config.Config
}

// NewAuthHandler constructs an AuthHandler over the loaded configuration.
func NewAuthHandler(cfg config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Login handles POST /v1/auth/login. The body must carry the operator's
// username and password; on success it returns the bearer token and its
// expiry. Both unknown user and wrong password answer 401 with the same
// message so the response does not leak which part failed.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Username != h.cfg.OperatorUser || !utils.VerifyPassword(h.cfg.OperatorHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	tok, err := utils.NewAccessToken(h.cfg.JWTSecret, body.Username, h.cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue token"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"access_token": tok.Token,
		"expires_at":   tok.Exp.Format(time.RFC3339),
	})
}
