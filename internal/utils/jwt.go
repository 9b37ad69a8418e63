// Package utils provides helpers for operator token creation and
// password verification.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// OperatorRole is the role claim carried by every token this service
// issues. The API has a single kind of user: the booking operator.
const OperatorRole = "OPERATOR"

// AccessToken represents a signed JWT access token along with its
// expiry. The Token field contains the JWT string; Exp stores the UTC
// expiration time. Access tokens go in the Authorization header when
// calling protected endpoints.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken builds and signs an HS256 JWT for the operator. It
// takes the signing secret, the operator's login name and a TTL in
// minutes. The JWT carries the standard claims: subject (sub), role,
// expiration (exp) and issued at (iat).
func NewAccessToken(secret, subject string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": OperatorRole,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
