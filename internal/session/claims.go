package session

import (
	"fmt"
	"time"

	"github.com/desertthunder/flix/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields flix reads from a myFlix token. The API signs the user record, so Username
// sits beside the registered claims.
type Claims struct {
	UserID   string `json:"_id,omitempty"`
	Username string `json:"Username,omitempty"`
	jwt.RegisteredClaims
}

// User returns the username carried by the token, preferring the Username claim over sub.
func (c *Claims) User() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Subject
}

// Expiry returns the exp claim, or nil when absent.
func (c *Claims) Expiry() *time.Time {
	if c.ExpiresAt == nil {
		return nil
	}
	t := c.ExpiresAt.Time
	return &t
}

// ParseClaims decodes a JWT without verifying its signature.
//
// Only the server can verify the token; the client uses the claims for display.
func ParseClaims(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("%w: token is not a JWT: %v", shared.ErrInvalidInput, err)
	}
	return &claims, nil
}
