package cli

import (
	"context"
	"errors"
	"os"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/services"
	"github.com/homehubdev/homehub/internal/common"
)

// Verify submits an email verification token.
func (a *App) Verify(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter verification token", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.VerifyEmail(ctx, token); err != nil {
		a.printAuthFailure("Verification", err)
		return nil
	}
	printlnFn("Email verified.")
	return nil
}

// Resend asks the server to send the verification email again.
func (a *App) Resend(ctx context.Context) error {
	if err := a.auth.ResendVerification(ctx); err != nil {
		a.printAuthFailure("Resend", err)
		return nil
	}
	printlnFn("Verification email sent.")
	return nil
}

// ResetRequest starts a password reset. The reply is the same whether or not
// the account exists.
func (a *App) ResetRequest(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.auth.RequestPasswordReset(ctx, email); err != nil {
		a.printAuthFailure("Request", err)
		return nil
	}
	printlnFn("If the account exists, a reset email is on its way.")
	return nil
}

// ResetConfirm finishes a password reset with the emailed token.
func (a *App) ResetConfirm(ctx context.Context) error {
	token, err := getSimpleText(a.reader, "Enter reset token", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret("New password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getSecret("Confirm new password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if err := a.auth.ConfirmPasswordReset(ctx, token, string(password), string(confirm)); err != nil {
		a.printAuthFailure("Reset", err)
		return nil
	}
	printlnFn("Password reset. You can log in now.")
	return nil
}

// Passwd changes the password of the logged-in user.
func (a *App) Passwd(ctx context.Context) error {
	current, err := getSecret("Current password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(current)

	password, err := getSecret("New password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getSecret("Confirm new password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if err := a.auth.ChangePassword(ctx, string(current), string(password), string(confirm)); err != nil {
		a.printAuthFailure("Password change", err)
		return nil
	}
	printlnFn("Password changed.")
	return nil
}

// Profile edits the username and display name. The server may demand an OTP
// code before applying the change; the user can enter the code or type
// "cancel" to abandon the edit.
func (a *App) Profile(ctx context.Context) error {
	snap := a.sessions.Snapshot()
	if snap.User == nil {
		printlnFn("Not logged in.")
		return nil
	}
	printlnFn("Editing profile of", snap.User.Username)

	username, err := getSimpleText(a.reader, "New username (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}
	displayName, err := getSimpleText(a.reader, "New display name (empty to keep)", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getSecret("Current password", os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, otpRequired, err := a.profile.Submit(ctx, api.ProfileUpdate{
		Username:        username,
		DisplayName:     displayName,
		CurrentPassword: string(password),
	})
	if err != nil {
		a.printAuthFailure("Update", err)
		return nil
	}
	if !otpRequired {
		printlnFn("Profile updated:", u.Username)
		return nil
	}

	printlnFn("A one-time code was sent to your email.")
	return a.confirmProfile(ctx)
}

// confirmProfile loops on the OTP prompt until the code is accepted, the
// user cancels, or the session is gone.
func (a *App) confirmProfile(ctx context.Context) error {
	for {
		code, err := getSimpleText(a.reader, "Enter code (or 'cancel')", os.Stdout)
		if err != nil {
			a.profile.Cancel()
			return err
		}
		if code == "cancel" {
			a.profile.Cancel()
			printlnFn("Edit abandoned, nothing changed.")
			return nil
		}

		u, err := a.profile.Confirm(ctx, code)
		if err != nil {
			if errors.Is(err, services.ErrNoPendingUpdate) || errors.Is(err, api.ErrUnauthorized) {
				a.printAuthFailure("Update", err)
				return nil
			}
			printlnFn("Code rejected, try again.")
			continue
		}

		printlnFn("Profile updated:", u.Username)
		return nil
	}
}
