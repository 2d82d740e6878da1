// Package common contains constants and small helpers shared by the client
// packages.
package common

// Wire names used by the credential transports.
const (
	AuthorizationHeaderName = "Authorization"
	RequestIDHeaderName     = "X-Request-ID"
	BearerPrefix            = "Bearer "

	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)
