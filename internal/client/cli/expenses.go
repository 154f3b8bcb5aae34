package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkuznecov/expensetrack/internal/client/models"
)

// List prints the user's expenses, newest first.
func (a *App) List(ctx context.Context) error {
	expenses, total, err := a.expenses.List(ctx)
	if err != nil {
		return err
	}

	if total == 0 {
		printlnFn("No expenses yet.")
		return nil
	}

	for _, e := range expenses {
		printlnFn(fmt.Sprintf("#%d  %s  %-14s  %s  %s",
			e.ID, e.Date, e.Category, e.Amount.StringFixed(2), e.Description))
	}
	printlnFn(fmt.Sprintf("%d expense(s)", total))
	return nil
}

// Add prompts for the expense fields and creates the record. The date
// defaults to today when left empty.
func (a *App) Add(ctx context.Context) error {
	amountText, err := getSimpleText(a.reader, "Enter amount", os.Stdout)
	if err != nil {
		return err
	}
	amount, err := decimal.NewFromString(amountText)
	if err != nil {
		printlnFn("Invalid amount, expected a number like 12.50")
		return nil
	}

	description, err := getSimpleText(a.reader, "Enter description", os.Stdout)
	if err != nil {
		return err
	}

	category, err := getSimpleText(a.reader,
		"Enter category ("+strings.Join(models.ExpenseCategories, ", ")+")", os.Stdout)
	if err != nil {
		return err
	}

	date, err := getSimpleText(a.reader, "Enter date YYYY-MM-DD (empty for today)", os.Stdout)
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}

	created, err := a.expenses.Create(ctx, models.ExpenseDraft{
		Amount:      amount,
		Description: description,
		Category:    category,
		Date:        date,
	})
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Added expense #%d (%s %s)", created.ID, created.Amount.StringFixed(2), created.Category))
	return nil
}

// Delete prompts for an expense id and removes the record.
func (a *App) Delete(ctx context.Context) error {
	idText, err := getSimpleText(a.reader, "Enter expense id to delete", os.Stdout)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		printlnFn("Invalid id, expected a number")
		return nil
	}

	if err := a.expenses.Delete(ctx, id); err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Deleted expense #%d", id))
	return nil
}

// Summary prints the total and the per-category breakdown.
func (a *App) Summary(ctx context.Context) error {
	sum, err := a.expenses.Summarize(ctx)
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("Total: %s over %d expense(s)", sum.Total.StringFixed(2), sum.Count))
	for _, category := range models.ExpenseCategories {
		if amount, ok := sum.ByCategory[category]; ok {
			printlnFn(fmt.Sprintf("  %-14s %s", category, amount.StringFixed(2)))
		}
	}
	return nil
}
