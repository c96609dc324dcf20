// Package api implements the HomeHub auth gateway: it translates domain
// operations into REST calls against the HomeHub API and raw HTTP responses
// into typed results and errors. It is the only component allowed to mutate
// the token store as a side effect of a successful operation.
package api

import (
	"context"

	"github.com/homehubdev/homehub/internal/client/models"
)

// TokenSource is the persisted session the gateway reads bearer tokens from
// and writes refreshed pairs back to. Implemented by the store package.
type TokenSource interface {
	// Tokens returns the stored access/refresh pair. Both are empty when
	// no session exists; that is not an error.
	Tokens(ctx context.Context) (access, refresh string, err error)

	// SetTokens persists a new pair, replacing any previous one.
	SetTokens(ctx context.Context, access, refresh string) error

	// Clear removes the stored pair. Idempotent.
	Clear(ctx context.Context) error
}

// ProfileUpdate is the payload for UpdateProfile. CurrentPassword is always
// required by the server as proof of possession; OTPCode is only set when
// replaying the mutation after an otp_required response.
type ProfileUpdate struct {
	Username        string
	DisplayName     string
	CurrentPassword string
	OTPCode         string
}

// Client is the auth gateway surface consumed by the service layer.
//
// Error contract: every method fails with exactly one of the typed errors
// defined in this package (ValidationError, AuthError, NetworkError,
// ServerError) or a sentinel derived from them. Errors are never swallowed.
type Client interface {
	Close() error

	// Login authenticates and persists the returned token pair. On any
	// failure the token store is left untouched.
	Login(ctx context.Context, email, password string) (*models.User, error)

	// Register creates an account and behaves like Login on success.
	// A password confirmation mismatch fails fast with ValidationError
	// before any network I/O.
	Register(ctx context.Context, email, username, password, passwordConfirm string) (*models.User, error)

	// Logout clears the token store. A best-effort revoke is sent to the
	// server first; its failure never fails the logout.
	Logout(ctx context.Context) error

	// CurrentUser resolves the stored token into a User. AuthError means
	// "not authenticated" and must not be treated as fatal.
	CurrentUser(ctx context.Context) (*models.User, error)

	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context) error

	// RequestPasswordReset resolves successfully whether or not the email
	// exists; enumeration safety is enforced server-side and the client
	// must not undermine it by special-casing.
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, password, passwordConfirm string) error

	ChangePassword(ctx context.Context, current, newPassword, newPasswordConfirm string) error

	// UpdateProfile applies a profile mutation. When the server demands
	// one-time-code confirmation it returns (nil, ErrOTPRequired) and the
	// profile is left unchanged.
	UpdateProfile(ctx context.Context, upd ProfileUpdate) (*models.User, error)
}
