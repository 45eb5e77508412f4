package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// Claims is what the client can learn from an access token without the
// server's key. Nothing here is verified; it only drives local UX such as
// treating an expired token as absent.
type Claims struct {
	Subject   string     `json:"sub,omitempty"`
	IssuedAt  *time.Time `json:"iat,omitempty"`
	ExpiresAt *time.Time `json:"exp,omitempty"`
}

// ReadClaims decodes the standard claims of a JWT. Opaque tokens return an
// error.
func ReadClaims(token string) (*Claims, error) {
	var sc jwt.StandardClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(StripBearer(token), &sc); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	c := &Claims{Subject: sc.Subject}
	if sc.IssuedAt != 0 {
		t := time.Unix(sc.IssuedAt, 0).UTC()
		c.IssuedAt = &t
	}
	if sc.ExpiresAt != 0 {
		t := time.Unix(sc.ExpiresAt, 0).UTC()
		c.ExpiresAt = &t
	}
	return c, nil
}

// Expiry returns the exp claim of token, or nil for opaque tokens and
// tokens without one.
func Expiry(token string) *time.Time {
	c, err := ReadClaims(token)
	if err != nil {
		return nil
	}
	return c.ExpiresAt
}
