package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkuznecov/expensetrack/internal/client/api"
	"github.com/mkuznecov/expensetrack/internal/client/models"
	"github.com/mkuznecov/expensetrack/internal/common"
	"github.com/mkuznecov/expensetrack/internal/logging"
)

const maxDescriptionLen = 255

// ValidationError is a client-side form violation. It is raised before any
// network call and matches common.ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return common.ErrValidation
}

// Summary aggregates the expense list for the dashboard view.
type Summary struct {
	Count      int
	Total      decimal.Decimal
	ByCategory map[string]decimal.Decimal
}

// ExpenseService wraps the expense CRUD calls and enforces the client-side
// validation rules the forms used to apply.
type ExpenseService struct {
	client api.Client
	log    logging.Logger
}

func NewExpenseService(client api.Client, log logging.Logger) *ExpenseService {
	return &ExpenseService{client: client, log: log.With("component", "expenses")}
}

// List returns the user's expenses (server order, newest first) and the
// total count reported by the server.
func (s *ExpenseService) List(ctx context.Context) ([]models.Expense, int, error) {
	expenses, total, err := s.client.ListExpenses(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("listing expenses: %w", err)
	}
	return expenses, total, nil
}

// Create validates the draft and submits it. A validation failure returns
// a *ValidationError without touching the network.
func (s *ExpenseService) Create(ctx context.Context, draft models.ExpenseDraft) (*models.Expense, error) {
	draft.Description = strings.TrimSpace(draft.Description)
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	created, err := s.client.CreateExpense(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	s.log.Info(ctx, "expense created", "id", created.ID, "category", created.Category)
	return created, nil
}

// Delete removes an expense by id.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("deleting expense %d: %w", id, err)
	}
	return nil
}

// Summarize computes the dashboard totals from the full expense list.
func (s *ExpenseService) Summarize(ctx context.Context) (*Summary, error) {
	expenses, _, err := s.client.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	sum := &Summary{
		Count:      len(expenses),
		Total:      decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, e := range expenses {
		sum.Total = sum.Total.Add(e.Amount)
		sum.ByCategory[e.Category] = sum.ByCategory[e.Category].Add(e.Amount)
	}
	return sum, nil
}

func validateDraft(d models.ExpenseDraft) error {
	if !d.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be greater than 0"}
	}
	if d.Description == "" {
		return &ValidationError{Field: "description", Message: "is required"}
	}
	if len(d.Description) > maxDescriptionLen {
		return &ValidationError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLen)}
	}
	if !models.ValidCategory(d.Category) {
		return &ValidationError{Field: "category", Message: "must be one of " + strings.Join(models.ExpenseCategories, ", ")}
	}
	if _, err := time.Parse(models.DateLayout, d.Date); err != nil {
		return &ValidationError{Field: "date", Message: "must be in YYYY-MM-DD format"}
	}
	return nil
}
