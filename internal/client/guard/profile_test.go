package guard

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/models"
	"github.com/homehubdev/homehub/internal/logging"
)

// meClient stubs only CurrentUser; the remaining api.Client methods are
// never reached by the profile checker.
type meClient struct {
	api.Client
	ret   *models.User
	err   error
	calls int
}

func (c *meClient) CurrentUser(ctx context.Context) (*models.User, error) {
	c.calls++
	return c.ret, c.err
}

func newChecker(c api.Client) *ProfileChecker {
	return NewProfileChecker(c, logging.NewSlogLogger(slog.New(slog.DiscardHandler)))
}

func TestProfileChecker_NilUserDenied(t *testing.T) {
	fc := &meClient{}
	c := newChecker(fc)
	require.False(t, c.Verify(context.Background(), nil))
	require.Zero(t, fc.calls)
}

func TestProfileChecker_CompleteProfileAllowed(t *testing.T) {
	fc := &meClient{ret: &models.User{ID: "1", ProfileCompleted: true}}
	c := newChecker(fc)

	local := &models.User{ID: "1"}
	require.True(t, c.Verify(context.Background(), local))
}

func TestProfileChecker_InfersFromRequiredFields(t *testing.T) {
	// The flag lags right after completion but the fields are present.
	fc := &meClient{ret: &models.User{ID: "1", Username: "alice", DisplayName: "Alice"}}
	c := newChecker(fc)

	require.True(t, c.Verify(context.Background(), &models.User{ID: "1"}))
}

func TestProfileChecker_FetchFailureFailsClosed(t *testing.T) {
	fc := &meClient{err: &api.NetworkError{Err: context.DeadlineExceeded}}
	c := newChecker(fc)

	local := &models.User{ID: "1", ProfileCompleted: true}
	require.False(t, c.Verify(context.Background(), local), "uncertainty denies access")

	// No automatic retry for the same user reference.
	require.False(t, c.Verify(context.Background(), local))
	require.Equal(t, 1, fc.calls)
}

func TestProfileChecker_MemoizedPerUserReference(t *testing.T) {
	fc := &meClient{ret: &models.User{ID: "1", ProfileCompleted: true}}
	c := newChecker(fc)

	first := &models.User{ID: "1"}
	require.True(t, c.Verify(context.Background(), first))
	require.True(t, c.Verify(context.Background(), first))
	require.Equal(t, 1, fc.calls, "same reference must not re-fetch")

	// A replaced user record re-triggers reconciliation exactly once.
	replaced := &models.User{ID: "1", Username: "alice"}
	require.True(t, c.Verify(context.Background(), replaced))
	require.Equal(t, 2, fc.calls)
}
