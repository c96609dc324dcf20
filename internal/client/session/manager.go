// Package session holds the single in-memory source of truth for "is a user
// logged in": the current user, the lifecycle state, and change
// notifications for consumers such as the command guards and the CLI.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/homehubdev/homehub/internal/client/api"
	"github.com/homehubdev/homehub/internal/client/models"
	"github.com/homehubdev/homehub/internal/client/store"
	"github.com/homehubdev/homehub/internal/logging"
)

type State string

const (
	// StateBooting is the initial state, before the persisted token has
	// been resolved. Guards must not redirect while booting.
	StateBooting State = "booting"

	StateAuthenticated State = "authenticated"
	StateAnonymous     State = "anonymous"
)

// ErrSuperseded is returned when an operation finished after a newer auth
// transition already committed. The late result was discarded; the current
// state stands.
var ErrSuperseded = errors.New("superseded by a newer auth transition")

// Snapshot is an atomic view of the session. Generation increases with every
// committed transition, so consumers can detect that the user reference they
// memoized against is stale.
type Snapshot struct {
	State      State
	User       *models.User
	Generation uint64
}

// Manager owns the session state machine.
//
// Every state-mutating operation records the generation it started from and
// commits only if no other transition happened in between. A slow login that
// resolves after a logout therefore never resurrects the session: the last
// confirmed state wins and the stale result is dropped with ErrSuperseded.
type Manager struct {
	client api.Client
	tokens store.TokenStore
	log    logging.Logger

	mu      sync.Mutex
	state   State
	user    *models.User
	gen     uint64
	subs    map[int]func(Snapshot)
	nextSub int
}

func NewManager(client api.Client, tokens store.TokenStore, log logging.Logger) *Manager {
	return &Manager{
		client: client,
		tokens: tokens,
		log:    log,
		state:  StateBooting,
		subs:   make(map[int]func(Snapshot)),
	}
}

// Bootstrap resolves the persisted token into an initial state. It always
// terminates in Authenticated or Anonymous; bootstrap failures are converted
// into Anonymous rather than propagated so the app never hangs in Booting.
//
// Rules:
//   - no stored token: Anonymous without any network call;
//   - token resolves: Authenticated with the returned user;
//   - token rejected (AuthError): Anonymous and the stale token is cleared;
//   - transport/server failure: Anonymous, token kept for the next start.
func (m *Manager) Bootstrap(ctx context.Context) {
	access, _, err := m.tokens.Tokens(ctx)
	if err != nil {
		m.log.Error(ctx, "token store unreadable at startup", "error", err)
		m.transition(StateAnonymous, nil)
		return
	}
	if access == "" {
		m.transition(StateAnonymous, nil)
		return
	}

	gen := m.generation()
	user, err := m.client.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			if cerr := m.tokens.Clear(ctx); cerr != nil {
				m.log.Error(ctx, "clearing rejected token", "error", cerr)
			}
			m.log.Info(ctx, "stored session rejected, starting anonymous")
		} else {
			m.log.Warn(ctx, "session restore failed, starting anonymous", "error", err)
		}
		m.commit(gen, StateAnonymous, nil)
		return
	}

	if m.commit(gen, StateAuthenticated, user) {
		m.log.Info(ctx, "session restored", "user_id", user.ID, "email", user.Email)
	}
}

// Login authenticates and commits the Authenticated state unless a newer
// transition won while the request was in flight.
func (m *Manager) Login(ctx context.Context, email, password string) (*models.User, error) {
	gen := m.generation()

	user, err := m.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if !m.commit(gen, StateAuthenticated, user) {
		m.log.Warn(ctx, "discarding stale login result", "email", email)
		return nil, ErrSuperseded
	}
	return user, nil
}

// Register behaves like Login on success.
func (m *Manager) Register(ctx context.Context, email, username, password, passwordConfirm string) (*models.User, error) {
	gen := m.generation()

	user, err := m.client.Register(ctx, email, username, password, passwordConfirm)
	if err != nil {
		return nil, err
	}

	if !m.commit(gen, StateAuthenticated, user) {
		m.log.Warn(ctx, "discarding stale register result", "email", email)
		return nil, ErrSuperseded
	}
	return user, nil
}

// Logout commits Anonymous immediately, then clears the persisted session.
// The local transition is authoritative: even if the server-side revoke or
// the store cleanup fails, the UI state is logged out.
func (m *Manager) Logout(ctx context.Context) error {
	m.transition(StateAnonymous, nil)

	if err := m.client.Logout(ctx); err != nil {
		m.log.Error(ctx, "clearing persisted session", "error", err)
		return err
	}
	return nil
}

// Invalidate handles an AuthError surfaced by a session-requiring operation:
// the session is over, locally and in the store. No server revoke is sent;
// the token was already rejected.
func (m *Manager) Invalidate(ctx context.Context) {
	m.transition(StateAnonymous, nil)
	if err := m.tokens.Clear(ctx); err != nil {
		m.log.Error(ctx, "clearing invalidated session", "error", err)
	}
}

// SetUser replaces the user record wholesale after a successful profile
// mutation. The authenticated/anonymous state does not change; the call is
// ignored when the session ended while the mutation was in flight.
func (m *Manager) SetUser(user *models.User) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.user = user
	m.gen++
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot returns the current state atomically.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers a state-change callback and returns its unsubscribe
// function. Callbacks run outside the manager lock, in the goroutine that
// committed the transition.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Dispose drops all subscriptions. Further transitions are still applied but
// no longer notified.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = make(map[int]func(Snapshot))
}

// ---- internals ----

func (m *Manager) generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// commit applies the transition only if no other transition committed since
// the caller read gen. Reports whether the result was applied.
func (m *Manager) commit(gen uint64, state State, user *models.User) bool {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return false
	}
	m.state = state
	m.user = user
	m.gen++
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// transition applies unconditionally (logout, invalidation, bootstrap
// shortcuts) and thereby supersedes any in-flight operation.
func (m *Manager) transition(state State, user *models.User) {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.gen++
	snap := m.snapshotLocked()
	subs := m.subscribersLocked()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{State: m.state, User: m.user, Generation: m.gen}
}

func (m *Manager) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}
