// Package services contains application services for the expense-tracker
// client. This file defines the authentication service: register, login,
// logout, and server-side session verification.
package services

import (
	"context"
	"fmt"

	"github.com/mkuznecov/expensetrack/internal/client/api"
	"github.com/mkuznecov/expensetrack/internal/client/models"
	"github.com/mkuznecov/expensetrack/internal/client/session"
	"github.com/mkuznecov/expensetrack/internal/logging"
)

// AuthService performs the auth round-trips and keeps the session store in
// sync with their outcomes. It does not track auth state itself; that is
// the session manager's job.
type AuthService struct {
	client api.Client
	store  session.Store
	log    logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client
// and session store.
func NewAuthService(client api.Client, store session.Store, log logging.Logger) *AuthService {
	return &AuthService{client: client, store: store, log: log.With("component", "auth")}
}

// Register creates a new account on the server. No session is created:
// registration issues no token in this API.
func (a *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	user, err := a.client.Register(ctx, username, email, password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	a.log.Info(ctx, "registered", "username", user.Username)
	return user, nil
}

// Login authenticates and persists {token, user} to the store before
// returning, so any read that follows a successful Login observes a
// consistent session.
func (a *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	token, user, err := a.client.Login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := a.store.Save(ctx, token, user); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	a.log.Info(ctx, "login ok", "username", user.Username)
	return user, nil
}

// Logout invalidates the session on the server on a best-effort basis and
// always clears the local store, on every exit path. It never fails the
// caller because of the remote call.
func (a *AuthService) Logout(ctx context.Context) (err error) {
	defer func() {
		if cerr := a.store.Clear(ctx); cerr != nil {
			err = fmt.Errorf("clearing session: %w", cerr)
		}
	}()

	if rerr := a.client.Logout(ctx); rerr != nil {
		a.log.Warn(ctx, "remote logout failed, continuing locally", "error", rerr)
	}
	return nil
}

// CurrentUser verifies the stored token server-side and returns the fresh
// profile. It does not mutate the store; the caller decides what a failure
// means for the session.
func (a *AuthService) CurrentUser(ctx context.Context) (*models.User, error) {
	user, err := a.client.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}
	return user, nil
}
