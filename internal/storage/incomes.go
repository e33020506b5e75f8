package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

type incomeRow struct {
	ID          int64  `db:"id"`
	OwnerID     int64  `db:"owner_id"`
	AmountCents int64  `db:"amount_cents"`
	Date        string `db:"income_date"`
	Description string `db:"description"`
	SourceKind  string `db:"source_kind"`
	SourceLabel string `db:"source_label"`
}

func (r incomeRow) toCore() (core.Income, error) {
	d, err := core.ParseDate(r.Date)
	if err != nil {
		return core.Income{}, fmt.Errorf("income %d has bad date %q: %w", r.ID, r.Date, err)
	}
	return core.Income{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Amount:      core.FromCents(r.AmountCents),
		Date:        d,
		Description: r.Description,
		Source:      r.source(),
	}, nil
}

// source reads back the stored kind. A kind this build does not know
// becomes an OTHER source named after it.
func (r incomeRow) source() core.IncomeSource {
	kind := core.SourceKind(r.SourceKind)
	if kind.Valid() {
		return core.IncomeSource{Kind: kind, Label: r.SourceLabel}
	}
	label := r.SourceLabel
	if label == "" {
		label = r.SourceKind
	}
	return core.IncomeSource{Kind: core.SourceOther, Label: label}
}

func incomesFromRows(rows []incomeRow) ([]core.Income, error) {
	out := make([]core.Income, 0, len(rows))
	for _, r := range rows {
		i, err := r.toCore()
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

const incomeSelect = `SELECT id, owner_id, amount_cents, income_date, description, source_kind, source_label FROM incomes`

func sourceKind(s core.IncomeSource) string {
	if !s.Kind.Valid() {
		return string(core.SourceOther)
	}
	return string(s.Kind)
}

func (q *Queries) CreateIncome(ctx context.Context, i core.Income) (core.Income, error) {
	id, err := q.insert(ctx,
		`INSERT INTO incomes (owner_id, amount_cents, income_date, description, source_kind, source_label) VALUES (?, ?, ?, ?, ?, ?)`,
		i.OwnerID, core.Cents(i.Amount), i.Date.String(), i.Description, sourceKind(i.Source), i.Source.Label)
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	i.ID = id
	return i, nil
}

// GetIncome returns the entry only if ownerID owns it.
func (q *Queries) GetIncome(ctx context.Context, ownerID, id int64) (core.Income, error) {
	var row incomeRow
	if err := q.get(ctx, &row, incomeSelect+` WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, notFound(err))
	}
	return row.toCore()
}

func (q *Queries) UpdateIncome(ctx context.Context, i core.Income) error {
	err := q.execOne(ctx,
		`UPDATE incomes SET amount_cents = ?, income_date = ?, description = ?, source_kind = ?, source_label = ? WHERE id = ? AND owner_id = ?`,
		core.Cents(i.Amount), i.Date.String(), i.Description, sourceKind(i.Source), i.Source.Label, i.ID, i.OwnerID)
	if err != nil {
		return fmt.Errorf("update income %d: %w", i.ID, err)
	}
	return nil
}

func (q *Queries) DeleteIncome(ctx context.Context, ownerID, id int64) error {
	if err := q.execOne(ctx, `DELETE FROM incomes WHERE id = ? AND owner_id = ?`, id, ownerID); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	return nil
}

func (q *Queries) CountIncomes(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM incomes WHERE owner_id = ?`, ownerID); err != nil {
		return 0, fmt.Errorf("count incomes: %w", err)
	}
	return n, nil
}

// ListIncomesPage returns one page of a user's income, newest first.
func (q *Queries) ListIncomesPage(ctx context.Context, ownerID int64, limit, offset int) ([]core.Income, error) {
	var rows []incomeRow
	err := q.list(ctx, &rows,
		incomeSelect+` WHERE owner_id = ? ORDER BY income_date DESC, id DESC LIMIT ? OFFSET ?`,
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list incomes page: %w", err)
	}
	return incomesFromRows(rows)
}

// ListIncomes returns every income entry of a user in insertion order.
func (q *Queries) ListIncomes(ctx context.Context, ownerID int64) ([]core.Income, error) {
	var rows []incomeRow
	if err := q.list(ctx, &rows, incomeSelect+` WHERE owner_id = ? ORDER BY id`, ownerID); err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return incomesFromRows(rows)
}

// ListIncomesSince returns a user's income dated on or after from.
func (q *Queries) ListIncomesSince(ctx context.Context, ownerID int64, from core.Date) ([]core.Income, error) {
	var rows []incomeRow
	err := q.list(ctx, &rows, incomeSelect+` WHERE owner_id = ? AND income_date >= ? ORDER BY id`, ownerID, from.String())
	if err != nil {
		return nil, fmt.Errorf("list incomes since %s: %w", from, err)
	}
	return incomesFromRows(rows)
}

func (q *Queries) TotalIncome(ctx context.Context, ownerID int64) (decimal.Decimal, error) {
	var cents int64
	if err := q.get(ctx, &cents, `SELECT COALESCE(SUM(amount_cents), 0) FROM incomes WHERE owner_id = ?`, ownerID); err != nil {
		return decimal.Zero, fmt.Errorf("total income: %w", err)
	}
	return core.FromCents(cents), nil
}
