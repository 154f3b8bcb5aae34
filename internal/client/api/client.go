// Package api is the transport adapter for the expense-tracker backend.
// It speaks JSON over HTTP, attaches the bearer token to outbound requests,
// and maps failures onto a closed error taxonomy.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mkuznecov/expensetrack/internal/client/models"
	"github.com/mkuznecov/expensetrack/internal/common"
)

// TokenSource yields the bearer token for outbound requests, if a session
// is present. The session store satisfies this interface; the adapter never
// mutates session state itself.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Client defines the remote operations the services layer depends on.
//
// Error contract:
//   - transport failures wrap common.ErrUnavailable;
//   - HTTP 401 wraps common.ErrUnauthorized;
//   - other non-2xx statuses surface as *APIError.
//
// All methods honor context cancellation.
type Client interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*models.User, error)
	ListExpenses(ctx context.Context) ([]models.Expense, int, error)
	CreateExpense(ctx context.Context, draft models.ExpenseDraft) (*models.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
}

// APIError is a server-reported failure: a non-2xx status plus the message
// from the response body, when one was decodable.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses onto shared sentinels so callers can
// branch with errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return common.ErrUnauthorized
	case http.StatusNotFound:
		return common.ErrNotFound
	default:
		return nil
	}
}

// UserMessage renders err as a line suitable for direct display.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, common.ErrUnauthorized):
		return "invalid credentials or expired session"
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	default:
		return err.Error()
	}
}
