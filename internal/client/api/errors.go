package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors. Callers match these with errors.Is.
var (
	// ErrUnavailable is returned when the server cannot be reached at the
	// transport level.
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized is returned when the server rejects the credentials
	// or the session token. Callers must treat it as "not authenticated",
	// never as a fatal condition.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrOTPRequired is returned by UpdateProfile when the server wants
	// one-time-code confirmation before applying the mutation.
	ErrOTPRequired = errors.New("otp confirmation required")

	// ErrNoSession is returned by authenticated operations when no token
	// is stored locally. It matches ErrUnauthorized under errors.Is.
	ErrNoSession = fmt.Errorf("no session token: %w", ErrUnauthorized)
)

// ValidationError reports field-level problems with the submitted data.
// It is produced client-side before any network call (e.g. password
// confirmation mismatch) and for server responses in the 400/409/422 range.
type ValidationError struct {
	Message string
	Fields  map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], "; "))
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

// AuthError reports a 401/403-class rejection. Message is safe to show to
// the user. Code carries the machine-readable reason when the server
// provides one (e.g. "token_expired").
type AuthError struct {
	Message string
	Code    string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Is makes every AuthError match ErrUnauthorized, so callers can use a
// single errors.Is check for the whole class.
func (e *AuthError) Is(target error) bool {
	return target == ErrUnauthorized
}

// NetworkError wraps a transport-level failure. The operation may be
// retried by the caller.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Is(target error) bool {
	return target == ErrUnavailable
}

// ServerError reports a 5xx response. The operation is not retried
// automatically.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error (%d)", e.StatusCode)
}
