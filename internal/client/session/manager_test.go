package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkuznecov/expensetrack/internal/client/models"
	"github.com/mkuznecov/expensetrack/internal/common"
	"github.com/mkuznecov/expensetrack/internal/logging"
)

// memStore is an in-memory Store for manager tests.
type memStore struct {
	mu     sync.Mutex
	token  string
	user   *models.User
	saves  int
	clears int
}

func (s *memStore) Save(ctx context.Context, token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = token, user
	s.saves++
	return nil
}

func (s *memStore) Load(ctx context.Context) (string, *models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.user, nil
}

func (s *memStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token, s.user = "", nil
	s.clears++
	return nil
}

// fakeAuth implements AuthService with pluggable behavior. Its Login mirrors
// the real service: the store write happens before Login returns.
type fakeAuth struct {
	store *memStore

	loginUser *models.User
	loginErr  error

	registerUser *models.User
	registerErr  error

	logoutErr error

	currentUser *models.User
	currentErr  error

	loginStarted  chan struct{}
	loginUnblock  chan struct{}
	logoutCalls   int
	currentCalls  int
	registerCalls int
}

func (f *fakeAuth) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	f.registerCalls++
	return f.registerUser, f.registerErr
}

func (f *fakeAuth) Login(ctx context.Context, username, password string) (*models.User, error) {
	if f.loginStarted != nil {
		close(f.loginStarted)
		<-f.loginUnblock
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.store != nil {
		_ = f.store.Save(ctx, "tok-"+username, f.loginUser)
	}
	return f.loginUser, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.logoutCalls++
	if f.store != nil {
		_ = f.store.Clear(ctx)
	}
	return f.logoutErr
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	f.currentCalls++
	return f.currentUser, f.currentErr
}

func newManager(store *memStore, auth *fakeAuth) *Manager {
	return NewManager(store, auth, logging.NewTextLogger("error"))
}

func TestBootstrap_NoStoredSession(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{store: store}
	m := newManager(store, auth)

	require.Equal(t, StateInitializing, m.State())
	m.Bootstrap(context.Background())

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.User())
	assert.Zero(t, auth.currentCalls, "no verification without a stored pair")
}

func TestBootstrap_RestoreThenVerifyRefreshesUser(t *testing.T) {
	// Store has {token: "abc", user: alice without email}; the server
	// confirms the session and returns the full profile.
	store := &memStore{token: "abc", user: &models.User{ID: 1, Username: "alice"}}
	auth := &fakeAuth{store: store, currentUser: &models.User{ID: 1, Username: "alice", Email: "a@x.com"}}
	m := newManager(store, auth)

	gen, restored := m.restore(context.Background())
	require.True(t, restored)
	assert.Equal(t, StateAuthenticated, m.State())
	assert.Empty(t, m.User().Email, "optimistic state uses the cached user")

	m.verifyStartup(context.Background(), gen)

	assert.Equal(t, StateAuthenticated, m.State())
	assert.Equal(t, "a@x.com", m.User().Email)
}

func TestBootstrap_VerifyRejectionClearsEverything(t *testing.T) {
	store := &memStore{token: "stale", user: &models.User{ID: 1, Username: "alice"}}
	auth := &fakeAuth{store: store, currentErr: common.ErrUnauthorized}
	m := newManager(store, auth)

	gen, restored := m.restore(context.Background())
	require.True(t, restored)

	m.verifyStartup(context.Background(), gen)

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.User())
	assert.True(t, m.SessionExpired())

	token, user, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestLogout_WinsOverLateVerificationSuccess(t *testing.T) {
	store := &memStore{token: "abc", user: &models.User{ID: 1, Username: "alice"}}
	auth := &fakeAuth{store: store, currentUser: &models.User{ID: 1, Username: "alice", Email: "a@x.com"}}
	m := newManager(store, auth)

	gen, restored := m.restore(context.Background())
	require.True(t, restored)

	// the user logs out while the verification round-trip is still pending
	require.NoError(t, m.Logout(context.Background()))
	require.Equal(t, StateUnauthenticated, m.State())

	// the verification then resolves successfully; it must be a no-op
	m.verifyStartup(context.Background(), gen)

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Nil(t, m.User())
}

func TestLogin_SuccessPersistsBeforeStateFlip(t *testing.T) {
	store := &memStore{}
	user := &models.User{ID: 2, Username: "bob", Email: "b@x.com"}
	auth := &fakeAuth{store: store, loginUser: user}
	m := newManager(store, auth)
	m.Bootstrap(context.Background())

	var observed []Snapshot
	m.Subscribe(func(s Snapshot) {
		if s.State == StateAuthenticated {
			// at broadcast time the store must already hold the pair
			token, u, err := store.Load(context.Background())
			require.NoError(t, err)
			require.NotEmpty(t, token)
			require.NotNil(t, u)
		}
		observed = append(observed, s)
	})

	got, err := m.Login(context.Background(), "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.Equal(t, StateAuthenticated, m.State())

	token, stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-bob", token)
	assert.Equal(t, user, stored)
	require.NotEmpty(t, observed)
	assert.Equal(t, StateAuthenticated, observed[len(observed)-1].State)
}

func TestLogin_FailureLeavesStoreUntouched(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{store: store, loginErr: common.ErrUnauthorized}
	m := newManager(store, auth)
	m.Bootstrap(context.Background())

	_, err := m.Login(context.Background(), "bob", "wrongpass")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Zero(t, store.saves)
}

func TestConcurrentMutatingOperationRejected(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{
		store:        store,
		loginUser:    &models.User{ID: 3, Username: "carol"},
		loginStarted: make(chan struct{}),
		loginUnblock: make(chan struct{}),
	}
	m := newManager(store, auth)
	m.Bootstrap(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(context.Background(), "carol", "pw")
		done <- err
	}()

	<-auth.loginStarted
	err := m.Logout(context.Background())
	assert.ErrorIs(t, err, common.ErrOperationInFlight)

	close(auth.loginUnblock)
	require.NoError(t, <-done)
	assert.Equal(t, StateAuthenticated, m.State())
}

func TestSignup_DoesNotChangeAuthState(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{store: store, registerUser: &models.User{ID: 4, Username: "dave"}}
	m := newManager(store, auth)
	m.Bootstrap(context.Background())

	user, err := m.Signup(context.Background(), "dave", "d@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "dave", user.Username)

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Zero(t, store.saves)
}

func TestLogout_IdempotentAndSwallowsAuthError(t *testing.T) {
	store := &memStore{}
	auth := &fakeAuth{store: store, logoutErr: errors.New("remote blew up")}
	m := newManager(store, auth)
	m.Bootstrap(context.Background())

	require.NoError(t, m.Logout(context.Background()))
	require.NoError(t, m.Logout(context.Background()))

	assert.Equal(t, StateUnauthenticated, m.State())
	assert.Equal(t, 2, auth.logoutCalls)
	token, user, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Nil(t, user)
}

func TestClose_SuppressesLateVerification(t *testing.T) {
	store := &memStore{token: "abc", user: &models.User{ID: 1, Username: "alice"}}
	auth := &fakeAuth{store: store, currentUser: &models.User{ID: 1, Username: "alice", Email: "a@x.com"}}
	m := newManager(store, auth)

	gen, restored := m.restore(context.Background())
	require.True(t, restored)

	m.Close()
	m.verifyStartup(context.Background(), gen)

	// state frozen at whatever it was before teardown
	assert.Empty(t, m.User().Email)
}
