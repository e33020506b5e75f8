package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

type expenseRow struct {
	ID          int64  `db:"id"`
	OwnerID     int64  `db:"owner_id"`
	AmountCents int64  `db:"amount_cents"`
	CategoryID  int64  `db:"category_id"`
	Category    string `db:"category"`
	Description string `db:"description"`
	Date        string `db:"expense_date"`
}

func (r expenseRow) toCore() (core.Expense, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense %d has bad date %q: %w", r.ID, r.Date, err)
	}
	return core.Expense{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Amount:      core.FromCents(r.AmountCents),
		CategoryID:  r.CategoryID,
		Category:    r.Category,
		Description: r.Description,
		Date:        d,
	}, nil
}

func expensesFromRows(rows []expenseRow) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(rows))
	for _, r := range rows {
		e, err := r.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

const expenseSelect = `SELECT e.id, e.owner_id, e.amount_cents, e.category_id, c.name AS category, e.description, e.expense_date
FROM expenses e JOIN categories c ON c.id = e.category_id`

// CreateExpense inserts the expense and returns it with its new ID.
func (q *Queries) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	id, err := q.insert(ctx,
		`INSERT INTO expenses (owner_id, amount_cents, category_id, description, expense_date) VALUES (?, ?, ?, ?, ?)`,
		e.OwnerID, core.Cents(e.Amount), e.CategoryID, e.Description, e.Date.String())
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	e.ID = id
	return e, nil
}

// GetExpense returns the expense only if ownerID owns it.
func (q *Queries) GetExpense(ctx context.Context, ownerID, id int64) (core.Expense, error) {
	var row expenseRow
	if err := q.get(ctx, &row, expenseSelect+` WHERE e.id = ? AND e.owner_id = ?`, id, ownerID); err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, notFound(err))
	}
	return row.toCore()
}

// UpdateExpense rewrites every editable field of an owned expense.
func (q *Queries) UpdateExpense(ctx context.Context, e core.Expense) error {
	err := q.execOne(ctx,
		`UPDATE expenses SET amount_cents = ?, category_id = ?, description = ?, expense_date = ? WHERE id = ? AND owner_id = ?`,
		core.Cents(e.Amount), e.CategoryID, e.Description, e.Date.String(), e.ID, e.OwnerID)
	if err != nil {
		return fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return nil
}

func (q *Queries) DeleteExpense(ctx context.Context, ownerID, id int64) error {
	if err := q.execOne(ctx, `DELETE FROM expenses WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

func (q *Queries) CountExpenses(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM expenses WHERE owner_id = ?`, ownerID); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// ListExpensesPage returns one page of a user's expenses, newest first.
func (q *Queries) ListExpensesPage(ctx context.Context, ownerID int64, limit, offset int) ([]core.Expense, error) {
	var rows []expenseRow
	err := q.list(ctx, &rows,
		expenseSelect+` WHERE e.owner_id = ? ORDER BY e.expense_date DESC, e.id DESC LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list expenses page: %w", err)
	}
	return expensesFromRows(rows)
}

// ListExpenses returns every expense of a user in insertion order.
func (q *Queries) ListExpenses(ctx context.Context, ownerID int64) ([]core.Expense, error) {
	var rows []expenseRow
	if err := q.list(ctx, &rows, expenseSelect+` WHERE e.owner_id = ? ORDER BY e.id`, ownerID); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expensesFromRows(rows)
}

type totalRow struct {
	Name  string `db:"name"`
	Cents int64  `db:"total_cents"`
}

func totalsFromRows(rows []totalRow) []core.CategoryTotal {
	out := make([]core.CategoryTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.CategoryTotal{Name: r.Name, Total: core.FromCents(r.Cents)})
	}
	return out
}

// ExpenseTotalsInWindow sums a user's expenses per category for dates in
// [from, to], ordered by category name.
func (q *Queries) ExpenseTotalsInWindow(ctx context.Context, ownerID int64, from, to core.Date) ([]core.CategoryTotal, error) {
	var rows []totalRow
	err := q.list(ctx, &rows,
		`SELECT c.name AS name, SUM(e.amount_cents) AS total_cents
		 FROM expenses e JOIN categories c ON c.id = e.category_id
		 WHERE e.owner_id = ? AND e.expense_date >= ? AND e.expense_date <= ?
		 GROUP BY c.id, c.name
		 ORDER BY c.name`,
		ownerID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("expense totals in window: %w", err)
	}
	return totalsFromRows(rows), nil
}

// ExpenseTotalsByCategory sums all of a user's expenses per category, in
// the order each category was first used.
func (q *Queries) ExpenseTotalsByCategory(ctx context.Context, ownerID int64) ([]core.CategoryTotal, error) {
	var rows []totalRow
	err := q.list(ctx, &rows,
		`SELECT c.name AS name, SUM(e.amount_cents) AS total_cents
		 FROM expenses e JOIN categories c ON c.id = e.category_id
		 WHERE e.owner_id = ?
		 GROUP BY c.id, c.name
		 ORDER BY MIN(e.id)`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("expense totals by category: %w", err)
	}
	return totalsFromRows(rows), nil
}

func (q *Queries) TotalExpenses(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	var cents int64
	if err := q.get(ctx, &cents, `SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE owner_id = ?`, ownerID); err != nil {
		return decimal.Zero, fmt.Errorf("total expenses: %w", err)
	}
	return core.FromCents(cents), nil
}
