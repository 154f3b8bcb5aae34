package session

import (
	"context"
	"errors"
	"sync"

	"github.com/mkuznecov/expensetrack/internal/client/models"
	"github.com/mkuznecov/expensetrack/internal/common"
	"github.com/mkuznecov/expensetrack/internal/logging"
)

// State is the authentication state visible to the UI.
type State int

const (
	StateInitializing State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// AuthService is the surface the manager needs from the auth layer.
// *services.AuthService satisfies it.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Snapshot is the state broadcast to subscribers after every transition.
type Snapshot struct {
	State          State
	User           *models.User
	SessionExpired bool
}

// Manager owns the tab-lifetime authentication state machine:
//
//	Initializing -> {Authenticated, Unauthenticated}
//
// It holds a cached copy of the session and resynchronizes from the Store;
// it never invents session state of its own. At most one mutating operation
// (login, signup, logout) may be in flight; a second call is rejected with
// common.ErrOperationInFlight.
//
// Every transition bumps a generation counter. The startup verification
// captures the generation it started from and its result is dropped if the
// generation has moved on, so a logout issued while a verification is
// pending always wins over a late-arriving success.
type Manager struct {
	store Store
	auth  AuthService
	log   logging.Logger

	mu        sync.Mutex
	state     State
	user      *models.User
	gen       uint64
	opPending bool
	expired   bool
	closed    bool
	listeners []func(Snapshot)
}

func NewManager(store Store, auth AuthService, log logging.Logger) *Manager {
	return &Manager{
		store: store,
		auth:  auth,
		log:   log.With("component", "session"),
		state: StateInitializing,
	}
}

// Subscribe registers fn to be called after every state transition.
// Callbacks run outside the manager's lock, in transition order.
func (m *Manager) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// SessionExpired reports whether the last transition to Unauthenticated was
// caused by the server rejecting a previously stored token.
func (m *Manager) SessionExpired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expired
}

// Bootstrap performs the one startup check. If a stored pair exists, the
// manager optimistically becomes Authenticated with the cached user and
// verifies the token in the background; otherwise it goes straight to
// Unauthenticated.
func (m *Manager) Bootstrap(ctx context.Context) {
	gen, restored := m.restore(ctx)
	if restored {
		go m.verifyStartup(ctx, gen)
	}
}

// restore loads the stored session and applies the initial transition.
// It returns the generation of the optimistic Authenticated state so the
// verification can detect that it has been superseded.
func (m *Manager) restore(ctx context.Context) (uint64, bool) {
	token, user, err := m.store.Load(ctx)
	if err != nil {
		m.log.Error(ctx, "loading stored session failed", "error", err)
	}

	if err != nil || token == "" || user == nil {
		m.transition(StateUnauthenticated, nil, false)
		return 0, false
	}

	m.log.Debug(ctx, "restored session from store", "username", user.Username)
	gen := m.transition(StateAuthenticated, user, false)
	return gen, true
}

// verifyStartup refreshes the optimistically restored user against the
// server. On failure the session is cleared; a result arriving after the
// manager moved on (logout, new login, close) is a no-op.
func (m *Manager) verifyStartup(ctx context.Context, gen uint64) {
	user, err := m.auth.CurrentUser(ctx)

	if err != nil {
		expired := errors.Is(err, common.ErrUnauthorized)
		if expired {
			m.log.Info(ctx, "stored token rejected by server")
		} else {
			m.log.Warn(ctx, "session verification failed", "error", err)
		}
		// Claim the generation before touching the store, so a session
		// created by a concurrent login is never wiped by this cleanup.
		if !m.transitionIfCurrent(gen, StateUnauthenticated, nil, expired) {
			m.log.Debug(ctx, "dropping stale verification result")
			return
		}
		if cerr := m.store.Clear(ctx); cerr != nil {
			m.log.Error(ctx, "clearing rejected session failed", "error", cerr)
		}
		return
	}

	if !m.transitionIfCurrent(gen, StateAuthenticated, user, false) {
		m.log.Debug(ctx, "dropping stale verification result")
	}
}

// Login authenticates and transitions to Authenticated. The auth service
// has already committed the session to the Store by the time it returns,
// so observers of the new state always find a consistent Store.
func (m *Manager) Login(ctx context.Context, username, password string) (*models.User, error) {
	if err := m.beginOp(); err != nil {
		return nil, err
	}
	defer m.endOp()

	user, err := m.auth.Login(ctx, username, password)
	if err != nil {
		m.transition(StateUnauthenticated, nil, false)
		return nil, err
	}

	m.transition(StateAuthenticated, user, false)
	return user, nil
}

// Signup registers a new account. Registration issues no token, so the
// authentication state does not change; the caller is expected to log in
// separately.
func (m *Manager) Signup(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := m.beginOp(); err != nil {
		return nil, err
	}
	defer m.endOp()

	return m.auth.Register(ctx, username, email, password)
}

// Logout ends the session. The remote call is best-effort inside the auth
// service; locally the manager always ends up Unauthenticated.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.beginOp(); err != nil {
		return err
	}
	defer m.endOp()

	if err := m.auth.Logout(ctx); err != nil {
		m.log.Warn(ctx, "logout cleanup reported error", "error", err)
	}
	m.transition(StateUnauthenticated, nil, false)
	return nil
}

// Close marks the manager as torn down. Pending verification results are
// discarded from here on. Idempotent.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *Manager) beginOp() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opPending {
		return common.ErrOperationInFlight
	}
	m.opPending = true
	return nil
}

func (m *Manager) endOp() {
	m.mu.Lock()
	m.opPending = false
	m.mu.Unlock()
}

// transition applies the new state, bumps the generation, and notifies
// subscribers. Returns the new generation.
func (m *Manager) transition(state State, user *models.User, expired bool) uint64 {
	return m.apply(nil, state, user, expired)
}

// transitionIfCurrent applies the transition only when gen is still the
// current generation. It reports whether the transition was applied.
func (m *Manager) transitionIfCurrent(gen uint64, state State, user *models.User, expired bool) bool {
	return m.apply(&gen, state, user, expired) != 0
}

func (m *Manager) apply(expectGen *uint64, state State, user *models.User, expired bool) uint64 {
	m.mu.Lock()
	if m.closed || (expectGen != nil && m.gen != *expectGen) {
		m.mu.Unlock()
		return 0
	}
	m.gen++
	gen := m.gen
	m.state = state
	m.user = user
	m.expired = expired
	snap := Snapshot{State: state, User: user, SessionExpired: expired}
	listeners := make([]func(Snapshot), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return gen
}
