// Package export copies a user's ledger to an external spreadsheet.
package export

import (
	"context"

	"expenses/internal/core"
)

// Writer appends ledger rows to a spreadsheet-like sink and returns a
// reference to the written range.
type Writer interface {
	WriteExpenses(ctx context.Context, owner string, expenses []core.Expense) (ref string, err error)
	WriteIncomes(ctx context.Context, owner string, incomes []core.Income) (ref string, err error)
}

var (
	ExpenseHeader = []any{"Date", "Description", "Category", "Amount"}
	IncomeHeader  = []any{"Date", "Description", "Source", "Amount"}
)

// ExpenseSheet names the sheet holding owner's expenses.
func ExpenseSheet(owner string) string { return owner + " Expenses" }

// IncomeSheet names the sheet holding owner's income.
func IncomeSheet(owner string) string { return owner + " Income" }

// ExpenseRows renders expenses as sheet rows, amounts as numbers.
func ExpenseRows(expenses []core.Expense) [][]any {
	rows := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []any{e.Date.String(), e.Description, e.Category, e.Amount.InexactFloat64()})
	}
	return rows
}

// IncomeRows renders income as sheet rows.
func IncomeRows(incomes []core.Income) [][]any {
	rows := make([][]any, 0, len(incomes))
	for _, i := range incomes {
		rows = append(rows, []any{i.Date.String(), i.Description, i.Source.String(), i.Amount.InexactFloat64()})
	}
	return rows
}
