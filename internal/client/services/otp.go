package services

import (
	"context"
	"errors"
	"sync"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/models"
	"github.com/homehubdev/homehub/internal/client/session"
	"github.com/homehubdev/homehub/internal/common"
	"github.com/homehubdev/homehub/internal/logging"
)

// OTPState enumerates the states of the sensitive-mutation confirmation
// flow.
type OTPState string

const (
	OTPIdle       OTPState = "idle"
	OTPAwaiting   OTPState = "awaiting_otp"
	OTPConfirming OTPState = "confirming"
)

var (
	// ErrNoPendingUpdate is returned by Confirm when no profile mutation
	// is awaiting confirmation.
	ErrNoPendingUpdate = errors.New("no pending profile update")

	// ErrUpdateInProgress is returned by Submit while a previous mutation
	// still awaits confirmation; it must be confirmed or cancelled first.
	ErrUpdateInProgress = errors.New("profile update awaiting confirmation")
)

// OTPFlow drives OTP-gated profile updates.
//
// A submission the server answers with otp_required parks the mutation in
// AwaitingOtp; the current password entered for it is cached in memory only,
// so the user is not asked for it twice. The mutation is not applied until
// Confirm succeeds. Cancel abandons the mutation entirely.
//
// Invariant: the cached password never outlives the flow. It is wiped on
// success, on cancel, and on any abort path.
type OTPFlow struct {
	client   api.Client
	sessions *session.Manager
	log      logging.Logger

	mu       sync.Mutex
	state    OTPState
	pending  api.ProfileUpdate // CurrentPassword intentionally left empty
	password []byte
}

func NewOTPFlow(client api.Client, sessions *session.Manager, log logging.Logger) *OTPFlow {
	return &OTPFlow{client: client, sessions: sessions, log: log, state: OTPIdle}
}

// State returns the current flow state.
func (f *OTPFlow) State() OTPState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit sends the profile mutation. The three outcomes are: applied
// immediately (returns the updated user), parked awaiting OTP confirmation
// (returns otpRequired=true, profile unchanged), or failed.
func (f *OTPFlow) Submit(ctx context.Context, upd api.ProfileUpdate) (user *models.User, otpRequired bool, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != OTPIdle {
		return nil, false, ErrUpdateInProgress
	}

	upd.OTPCode = ""
	updated, err := f.client.UpdateProfile(ctx, upd)
	if err != nil {
		if errors.Is(err, api.ErrOTPRequired) {
			f.password = []byte(upd.CurrentPassword)
			upd.CurrentPassword = ""
			f.pending = upd
			f.state = OTPAwaiting
			f.log.Info(ctx, "profile update parked awaiting otp confirmation")
			return nil, true, nil
		}
		return nil, false, err
	}

	f.sessions.SetUser(updated)
	return updated, false, nil
}

// Confirm replays the parked mutation with the cached password and the
// user-entered code. An invalid or expired code keeps the flow in
// AwaitingOtp so the user may retry; a token-class rejection aborts the
// flow along with the session.
func (f *OTPFlow) Confirm(ctx context.Context, code string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != OTPAwaiting {
		return nil, ErrNoPendingUpdate
	}
	f.state = OTPConfirming

	upd := f.pending
	upd.CurrentPassword = string(f.password)
	upd.OTPCode = code

	updated, err := f.client.UpdateProfile(ctx, upd)
	if err != nil {
		var authErr *api.AuthError
		if errors.Is(err, api.ErrNoSession) ||
			(errors.As(err, &authErr) &&
				(authErr.Code == common.ErrCodeTokenExpired || authErr.Code == common.ErrCodeTokenInvalid)) {
			f.resetLocked()
			f.sessions.Invalidate(ctx)
			return nil, err
		}
		// Wrong or expired code: stay parked, allow another attempt.
		f.state = OTPAwaiting
		return nil, err
	}

	f.resetLocked()
	f.sessions.SetUser(updated)
	return updated, nil
}

// Cancel abandons the pending mutation. The user must restart the edit from
// scratch. Idempotent.
func (f *OTPFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *OTPFlow) resetLocked() {
	common.WipeByteArray(f.password)
	f.password = nil
	f.pending = api.ProfileUpdate{}
	f.state = OTPIdle
}
