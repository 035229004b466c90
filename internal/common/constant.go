// Package common contains constants shared by the FeedPulse client packages.
package common

const (
	// AuthorizationHeader carries the bearer credential on outbound requests.
	AuthorizationHeader = "Authorization"
	// BearerPrefix precedes the access token in AuthorizationHeader.
	BearerPrefix = "Bearer "
	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// Keys of the persisted session pair. They are fixed so that a newer client
// can pick up a session written by an older one.
const (
	SessionTokenKey = "token"
	SessionUserKey  = "user"
)
