// Package services contains application services for the HomeHub client.
// This file defines the authentication service: login, register, logout,
// session bootstrap, email verification, and password management.
package services

import (
	"context"
	"errors"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/models"
	"github.com/homehubdev/homehub/internal/client/session"
	"github.com/homehubdev/homehub/internal/common"
	"github.com/homehubdev/homehub/internal/logging"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Bootstrap: resolve the persisted session into Authenticated/Anonymous.
//   - Login/Register: authenticate and commit the session.
//   - Logout: end the session locally, best-effort revoke remotely.
//   - RefreshUser: re-fetch the canonical user and replace the cached one.
//   - VerifyEmail/ResendVerification: email verification round-trips.
//   - RequestPasswordReset/ConfirmPasswordReset/ChangePassword: password
//     management; the request side resolves successfully for unknown emails.
//   - Close: release underlying client resources.
//
// Any operation that requires a valid session converts an AuthError from the
// gateway into a session invalidation: the stored token is cleared and the
// state machine moves to Anonymous. All methods honor context cancellation.
type AuthService interface {
	Bootstrap(ctx context.Context)
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, email, username, password, passwordConfirm string) (*models.User, error)
	Logout(ctx context.Context) error
	RefreshUser(ctx context.Context) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, password, passwordConfirm string) error
	ChangePassword(ctx context.Context, current, newPassword, newPasswordConfirm string) error
	Close(ctx context.Context) error
}

type authService struct {
	client   api.Client
	sessions *session.Manager
	log      logging.Logger
}

// NewAuthService constructs an AuthService bound to the given gateway and
// session manager.
func NewAuthService(client api.Client, sessions *session.Manager, log logging.Logger) AuthService {
	return &authService{client: client, sessions: sessions, log: log}
}

func (a *authService) Bootstrap(ctx context.Context) {
	a.sessions.Bootstrap(ctx)
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	return a.sessions.Login(ctx, email, password)
}

func (a *authService) Register(ctx context.Context, email, username, password, passwordConfirm string) (*models.User, error) {
	return a.sessions.Register(ctx, email, username, password, passwordConfirm)
}

func (a *authService) Logout(ctx context.Context) error {
	return a.sessions.Logout(ctx)
}

// RefreshUser fetches the canonical user record and replaces the cached one.
// A rejected session invalidates locally and surfaces the original error.
func (a *authService) RefreshUser(ctx context.Context) (*models.User, error) {
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return nil, a.sessionErr(ctx, err)
	}
	a.sessions.SetUser(user)
	return user, nil
}

// VerifyEmail consumes a verification token. On success the cached user is
// refreshed so the verified flag is visible immediately; a refresh failure
// is logged, not surfaced, since the verification itself succeeded.
func (a *authService) VerifyEmail(ctx context.Context, token string) error {
	if err := a.client.VerifyEmail(ctx, token); err != nil {
		return err
	}
	if a.sessions.Snapshot().State == session.StateAuthenticated {
		if _, err := a.RefreshUser(ctx); err != nil {
			a.log.Warn(ctx, "refreshing user after email verification", "error", err)
		}
	}
	return nil
}

func (a *authService) ResendVerification(ctx context.Context) error {
	return a.sessionErr(ctx, a.client.ResendVerification(ctx))
}

func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	return a.client.RequestPasswordReset(ctx, email)
}

func (a *authService) ConfirmPasswordReset(ctx context.Context, token, password, passwordConfirm string) error {
	return a.client.ConfirmPasswordReset(ctx, token, password, passwordConfirm)
}

func (a *authService) ChangePassword(ctx context.Context, current, newPassword, newPasswordConfirm string) error {
	return a.sessionErr(ctx, a.client.ChangePassword(ctx, current, newPassword, newPasswordConfirm))
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}

// sessionErr invalidates the session when the token itself was rejected.
// A wrong-password AuthError must not end the session, so only token-class
// rejections (no stored token, token_expired, token_invalid) invalidate;
// everything else passes through unchanged.
func (a *authService) sessionErr(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	var authErr *api.AuthError
	tokenRejected := errors.Is(err, api.ErrNoSession) ||
		(errors.As(err, &authErr) &&
			(authErr.Code == common.ErrCodeTokenExpired || authErr.Code == common.ErrCodeTokenInvalid))
	if !tokenRejected {
		return err
	}

	a.log.Info(ctx, "session rejected by server, logging out locally")
	a.sessions.Invalidate(ctx)
	return err
}
