// Package session owns the client-side authentication session: a durable
// {token, user} pair and the state machine that exposes it to the UI.
package session

import (
	"context"

	"github.com/mkuznecov/expensetrack/internal/client/models"
)

// Store persists the session pair. It is the sole source of truth for
// "is a session present"; everything else holds cached copies.
//
// Contract:
//   - Save writes token and user atomically; readers never observe only one.
//   - Load returns (token, user) or ("", nil) when nothing usable is stored.
//     A corrupted record counts as absent, not as an error.
//   - Clear removes both values and is idempotent.
//
// No network access.
type Store interface {
	Save(ctx context.Context, token string, user *models.User) error
	Load(ctx context.Context) (string, *models.User, error)
	Clear(ctx context.Context) error
}
