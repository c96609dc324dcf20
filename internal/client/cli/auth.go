package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/common"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// Register prompts for email, username and password and attempts to create
// a new account via the AuthService.
//
// On success the session is established immediately and navigation proceeds
// like after a login. Password byte slices are securely wiped before
// returning. Any I/O error is returned unchanged.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getSecret("Confirm password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if _, err := a.auth.Register(ctx, email, username, string(password), string(confirm)); err != nil {
		a.printAuthFailure("Registration", err)
		return nil
	}

	printlnFn("Account created. Check your inbox for a verification email.")
	return a.afterSignIn(ctx)
}

// Login prompts the user for credentials and tries to authenticate.
//
// On success, a pending redirect intent (the page the user originally tried
// to open) wins over the default dashboard landing. The password is securely
// wiped before returning. Authentication failures are reported to the user
// and do not abort the REPL.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret("Enter password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if _, err := a.auth.Login(ctx, email, string(password)); err != nil {
		a.printAuthFailure("Login", err)
		return nil
	}

	printlnFn("Logged in.")
	return a.afterSignIn(ctx)
}

// afterSignIn lands the fresh session: a captured redirect intent takes
// precedence over the dashboard.
func (a *App) afterSignIn(ctx context.Context) error {
	target := a.intents.Consume()
	if target == "" {
		target = viewDashboard
	}
	return a.openLocation(ctx, target)
}

// Logout ends the session locally first, then best-effort revokes the
// refresh token on the server.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.log.Warn(ctx, "logout", "error", err)
	}
	a.location = viewHome
	printlnFn("Logged out.")
	return nil
}

// Me re-fetches the canonical user record and prints it.
func (a *App) Me(ctx context.Context) error {
	u, err := a.auth.RefreshUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			printlnFn("Not logged in.")
			return nil
		}
		a.printAuthFailure("Request", err)
		return nil
	}

	printlnFn(fmt.Sprintf("%s <%s>", u.Username, u.Email))
	printlnFn(fmt.Sprintf("Display name: %s", u.DisplayName))
	printlnFn(fmt.Sprintf("Role: %s, level %d, %d points", u.Role, u.Level, u.Points))
	if !u.IsEmailVerified {
		printlnFn("Email not verified yet.")
	}
	return nil
}

// printAuthFailure reports an API error in user terms.
func (a *App) printAuthFailure(what string, err error) {
	switch {
	case errors.Is(err, api.ErrUnavailable):
		printlnFn("Server unavailable, try again later.")
	case errors.Is(err, api.ErrUnauthorized):
		printlnFn(what + " failed: invalid credentials.")
	default:
		printlnFn(what+" failed:", err.Error())
	}
}
