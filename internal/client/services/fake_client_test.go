package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/models"
	"github.com/homehubdev/homehub/internal/client/session"
	"github.com/homehubdev/homehub/internal/logging"
)

// updateResult scripts one UpdateProfile outcome.
type updateResult struct {
	user *models.User
	err  error
}

// fakeClient implements api.Client for service-level tests.
type fakeClient struct {
	LoginUser *models.User
	LoginErr  error

	RegisterUser *models.User
	RegisterErr  error

	CurrentUserRet   *models.User
	CurrentUserErr   error
	CurrentUserCalls int

	VerifyEmailErr        error
	ResendErr             error
	ResetRequestErr       error
	ResetRequestEmails    []string
	ConfirmResetErr       error
	ChangePasswordErr     error
	ChangePasswordCalls   int
	LogoutCalls           int
	UpdateResults         []updateResult
	UpdateProfileCalls    int
	LastUpdate            api.ProfileUpdate
	LastUpdatePasswordSet bool
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	return f.LoginUser, f.LoginErr
}

func (f *fakeClient) Register(ctx context.Context, email, username, password, passwordConfirm string) (*models.User, error) {
	return f.RegisterUser, f.RegisterErr
}

func (f *fakeClient) Logout(ctx context.Context) error {
	f.LogoutCalls++
	return nil
}

func (f *fakeClient) CurrentUser(ctx context.Context) (*models.User, error) {
	f.CurrentUserCalls++
	return f.CurrentUserRet, f.CurrentUserErr
}

func (f *fakeClient) VerifyEmail(ctx context.Context, token string) error { return f.VerifyEmailErr }
func (f *fakeClient) ResendVerification(ctx context.Context) error        { return f.ResendErr }

func (f *fakeClient) RequestPasswordReset(ctx context.Context, email string) error {
	f.ResetRequestEmails = append(f.ResetRequestEmails, email)
	return f.ResetRequestErr
}

func (f *fakeClient) ConfirmPasswordReset(ctx context.Context, token, password, passwordConfirm string) error {
	return f.ConfirmResetErr
}

func (f *fakeClient) ChangePassword(ctx context.Context, current, newPassword, newPasswordConfirm string) error {
	f.ChangePasswordCalls++
	return f.ChangePasswordErr
}

func (f *fakeClient) UpdateProfile(ctx context.Context, upd api.ProfileUpdate) (*models.User, error) {
	f.UpdateProfileCalls++
	f.LastUpdate = upd
	f.LastUpdatePasswordSet = upd.CurrentPassword != ""
	if len(f.UpdateResults) == 0 {
		return nil, nil
	}
	res := f.UpdateResults[0]
	f.UpdateResults = f.UpdateResults[1:]
	return res.user, res.err
}

// memTokens is an in-memory TokenStore.
type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
}

func (m *memTokens) Tokens(ctx context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, m.refresh, nil
}

func (m *memTokens) SetTokens(ctx context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	return nil
}

func (m *memTokens) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
	return nil
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// authenticatedManager boots a manager into the Authenticated state with
// the given user.
func authenticatedManager(fc *fakeClient, u *models.User) (*session.Manager, *memTokens) {
	tokens := &memTokens{access: "tok", refresh: "ref"}
	fc.CurrentUserRet = u
	m := session.NewManager(fc, tokens, testLogger())
	m.Bootstrap(context.Background())
	fc.CurrentUserCalls = 0
	return m, tokens
}
