// Package models defines the client-side data model of the university
// portal: credentials, roles, the dashboard profile and the entities held in
// the dashboard caches.
package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential is the access/refresh token pair issued by the server. Refresh
// may be empty when the server did not issue one. Tokens are opaque to the
// client and are never built locally.
type Credential struct {
	Access  string
	Refresh string
}

// IsZero reports whether the credential carries no access token.
func (c Credential) IsZero() bool {
	return c.Access == ""
}

// AccessExpiry reads the exp claim of the access token without verifying
// its signature. ok is false when the token is not a JWT or has no exp.
// The result may only be used to reject a credential early, never to
// accept one.
func (c Credential) AccessExpiry() (exp time.Time, ok bool) {
	if c.Access == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.Access, claims); err != nil {
		return time.Time{}, false
	}
	e, err := claims.GetExpirationTime()
	if err != nil || e == nil {
		return time.Time{}, false
	}
	return e.Time, true
}

// ExpiredAt reports whether the access token is known to be expired at now.
// Tokens without a readable expiry are not considered expired.
func (c Credential) ExpiredAt(now time.Time) bool {
	exp, ok := c.AccessExpiry()
	return ok && !now.Before(exp)
}
