package models

import "github.com/shopspring/decimal"

// DateLayout is the wire format for expense dates.
const DateLayout = "2006-01-02"

// ExpenseCategories are the categories the backend accepts.
var ExpenseCategories = []string{
	"Food",
	"Transportation",
	"Entertainment",
	"Healthcare",
	"Shopping",
	"Utilities",
	"Other",
}

// ValidCategory reports whether c is one of ExpenseCategories.
func ValidCategory(c string) bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is a single spending record as returned by the API.
type Expense struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

// ExpenseDraft is the client-side input for creating an expense,
// validated before it is ever sent to the server.
type ExpenseDraft struct {
	Amount      decimal.Decimal
	Description string
	Category    string
	Date        string
}
