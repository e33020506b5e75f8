package storage

import (
	"context"
	"fmt"

	"expenses/internal/core"
)

type categoryRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func (q *Queries) ListCategories(ctx context.Context) ([]core.Category, error) {
	var rows []categoryRow
	if err := q.list(ctx, &rows, `SELECT id, name FROM categories ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Category{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var row categoryRow
	if err := q.get(ctx, &row, `SELECT id, name FROM categories WHERE id = ?`, id); err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return core.Category{ID: row.ID, Name: row.Name}, nil
}

// GetCategoryByName looks a category up by its exact name.
func (q *Queries) GetCategoryByName(ctx context.Context, name string) (core.Category, error) {
	var row categoryRow
	if err := q.get(ctx, &row, `SELECT id, name FROM categories WHERE name = ?`, name); err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, notFound(err))
	}
	return core.Category{ID: row.ID, Name: row.Name}, nil
}

func (q *Queries) CreateCategory(ctx context.Context, name string) (core.Category, error) {
	id, err := q.insert(ctx, `INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("create category %q: %w", name, core.ErrDuplicate)
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	return core.Category{ID: id, Name: name}, nil
}

func (q *Queries) RenameCategory(ctx context.Context, id int64, name string) error {
	err := q.execOne(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("rename category %d: %w", id, core.ErrDuplicate)
		}
		return fmt.Errorf("rename category %d: %w", id, err)
	}
	return nil
}

// DeleteCategory removes an unused category. Expenses still referencing it
// make the delete fail with core.ErrCategoryInUse.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	err := q.execOne(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete category %d: %w", id, core.ErrCategoryInUse)
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

// ReassignExpenses moves every expense from one category to another and
// returns how many rows moved.
func (q *Queries) ReassignExpenses(ctx context.Context, fromID, toID int64) (int64, error) {
	res, err := q.exec(ctx, `UPDATE expenses SET category_id = ? WHERE category_id = ?`, toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("reassign expenses: %w", err)
	}
	return res.RowsAffected()
}
