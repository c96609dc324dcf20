// Package common contains shared constants and small helpers used across
// HomeHub components.
package common

const (
	// AuthorizationHeaderName is the HTTP header carrying the bearer token
	// on authenticated requests.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName carries a per-request correlation ID so client
	// requests can be matched against server logs.
	RequestIDHeaderName = "X-Request-Id"

	// ErrCodeTokenExpired is the machine-readable code the API attaches to
	// a 401 caused by an expired (but otherwise well-formed) access token.
	// It is the trigger for the client-side refresh path.
	ErrCodeTokenExpired = "token_expired"

	// ErrCodeTokenInvalid marks a 401 caused by a malformed or revoked
	// token. Unlike an expired token it is not worth refreshing.
	ErrCodeTokenInvalid = "token_invalid"

	// ErrCodeOTPRequired is the code returned when a sensitive profile
	// mutation needs one-time-code confirmation before it is applied.
	ErrCodeOTPRequired = "otp_required"
)
