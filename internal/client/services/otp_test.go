package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/models"
)

func newOTPFlow(t *testing.T, fc *fakeClient, u *models.User) *OTPFlow {
	t.Helper()
	mgr, _ := authenticatedManager(fc, u)
	return NewOTPFlow(fc, mgr, testLogger())
}

func TestOTPFlow_ImmediateApply(t *testing.T) {
	updated := &models.User{ID: "1", Username: "renamed"}
	fc := &fakeClient{UpdateResults: []updateResult{{user: updated}}}
	flow := newOTPFlow(t, fc, &models.User{ID: "1", Username: "old"})

	u, otpRequired, err := flow.Submit(context.Background(), api.ProfileUpdate{
		Username:        "renamed",
		CurrentPassword: "Password1",
	})
	require.NoError(t, err)
	require.False(t, otpRequired)
	require.Equal(t, "renamed", u.Username)
	require.Equal(t, OTPIdle, flow.State())
}

func TestOTPFlow_OTPRequired_ProfileUnchangedUntilConfirm(t *testing.T) {
	original := &models.User{ID: "1", Username: "old"}
	updated := &models.User{ID: "1", Username: "renamed"}
	fc := &fakeClient{UpdateResults: []updateResult{
		{err: api.ErrOTPRequired},
		{user: updated},
	}}
	mgr, _ := authenticatedManager(fc, original)
	flow := NewOTPFlow(fc, mgr, testLogger())

	_, otpRequired, err := flow.Submit(context.Background(), api.ProfileUpdate{
		Username:        "renamed",
		CurrentPassword: "Password1",
	})
	require.NoError(t, err)
	require.True(t, otpRequired)
	require.Equal(t, OTPAwaiting, flow.State())
	require.Equal(t, "old", mgr.Snapshot().User.Username, "mutation must not apply before confirmation")

	u, err := flow.Confirm(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, "renamed", u.Username)
	require.Equal(t, OTPIdle, flow.State())
	require.Equal(t, "renamed", mgr.Snapshot().User.Username)

	// The cached password was reused for the confirmation call.
	require.Equal(t, "Password1", fc.LastUpdate.CurrentPassword)
	require.Equal(t, "123456", fc.LastUpdate.OTPCode)
}

func TestOTPFlow_Cancel_DiscardsPendingMutation(t *testing.T) {
	fc := &fakeClient{UpdateResults: []updateResult{{err: api.ErrOTPRequired}}}
	mgr, _ := authenticatedManager(fc, &models.User{ID: "1", Username: "old"})
	flow := NewOTPFlow(fc, mgr, testLogger())

	_, otpRequired, err := flow.Submit(context.Background(), api.ProfileUpdate{
		Username:        "renamed",
		CurrentPassword: "Password1",
	})
	require.NoError(t, err)
	require.True(t, otpRequired)

	flow.Cancel()
	require.Equal(t, OTPIdle, flow.State())
	require.Equal(t, "old", mgr.Snapshot().User.Username)

	// The cached password is gone: confirming now reports no pending work.
	_, err = flow.Confirm(context.Background(), "123456")
	require.ErrorIs(t, err, ErrNoPendingUpdate)
	require.Equal(t, 1, fc.UpdateProfileCalls, "cancel must not reach the server")
}

func TestOTPFlow_WrongCode_AllowsRetry(t *testing.T) {
	updated := &models.User{ID: "1", Username: "renamed"}
	fc := &fakeClient{UpdateResults: []updateResult{
		{err: api.ErrOTPRequired},
		{err: &api.ValidationError{Message: "invalid code"}},
		{user: updated},
	}}
	flow := newOTPFlow(t, fc, &models.User{ID: "1", Username: "old"})

	_, _, err := flow.Submit(context.Background(), api.ProfileUpdate{
		Username:        "renamed",
		CurrentPassword: "Password1",
	})
	require.NoError(t, err)

	_, err = flow.Confirm(context.Background(), "000000")
	require.Error(t, err)
	require.Equal(t, OTPAwaiting, flow.State(), "wrong code keeps the mutation parked")

	u, err := flow.Confirm(context.Background(), "123456")
	require.NoError(t, err)
	require.Equal(t, "renamed", u.Username)
}

func TestOTPFlow_SubmitWhileAwaiting_Rejected(t *testing.T) {
	fc := &fakeClient{UpdateResults: []updateResult{{err: api.ErrOTPRequired}}}
	flow := newOTPFlow(t, fc, &models.User{ID: "1"})

	_, _, err := flow.Submit(context.Background(), api.ProfileUpdate{Username: "a", CurrentPassword: "p"})
	require.NoError(t, err)

	_, _, err = flow.Submit(context.Background(), api.ProfileUpdate{Username: "b", CurrentPassword: "p"})
	require.ErrorIs(t, err, ErrUpdateInProgress)
}

func TestOTPFlow_ConfirmWithoutSubmit(t *testing.T) {
	flow := newOTPFlow(t, &fakeClient{}, &models.User{ID: "1"})

	_, err := flow.Confirm(context.Background(), "123456")
	require.ErrorIs(t, err, ErrNoPendingUpdate)
}
