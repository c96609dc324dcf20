// Package store persists the client session across process restarts.
// It is pure storage: no network access and no validation of token contents.
package store

import "context"

// Metadata keys used in the sqlite metadata table.
const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
)

// TokenStore is the durable session slot. At most one token pair is stored
// per database; absence of a pair means "not authenticated".
type TokenStore interface {
	// Tokens returns the stored pair, or empty strings when none exists.
	// Never fails just because the slot is empty.
	Tokens(ctx context.Context) (access, refresh string, err error)

	// SetTokens replaces the stored pair atomically: both values are
	// written or neither is.
	SetTokens(ctx context.Context, access, refresh string) error

	// Clear removes the stored pair. Idempotent.
	Clear(ctx context.Context) error
}
