package storage

import (
	"context"
	"fmt"

	"expenses/internal/core"
)

type preferenceRow struct {
	ID       int64  `db:"id"`
	OwnerID  int64  `db:"owner_id"`
	Currency string `db:"currency"`
}

func (q *Queries) CreatePreference(ctx context.Context, ownerID int64, currency string) (core.UserPreference, error) {
	id, err := q.insert(ctx, `INSERT INTO user_preferences (owner_id, currency) VALUES (?, ?)`, ownerID, currency)
	if err != nil {
		if isUniqueViolation(err) {
			return core.UserPreference{}, fmt.Errorf("create preference for user %d: %w", ownerID, core.ErrDuplicate)
		}
		return core.UserPreference{}, fmt.Errorf("create preference: %w", err)
	}
	return core.UserPreference{ID: id, OwnerID: ownerID, Currency: currency}, nil
}

func (q *Queries) GetPreference(ctx context.Context, ownerID int64) (core.UserPreference, error) {
	var row preferenceRow
	err := q.get(ctx, &row, `SELECT id, owner_id, currency FROM user_preferences WHERE owner_id = ?`, ownerID)
	if err != nil {
		return core.UserPreference{}, fmt.Errorf("get preference for user %d: %w", ownerID, notFound(err))
	}
	return core.UserPreference{ID: row.ID, OwnerID: row.OwnerID, Currency: row.Currency}, nil
}

func (q *Queries) SetCurrency(ctx context.Context, ownerID int64, currency string) error {
	if err := q.execOne(ctx, `UPDATE user_preferences SET currency = ? WHERE owner_id = ?`, currency, ownerID); err != nil {
		return fmt.Errorf("set currency for user %d: %w", ownerID, err)
	}
	return nil
}

// CountPreferences returns how many preference rows a user has.
func (q *Queries) CountPreferences(ctx context.Context, ownerID int64) (int, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM user_preferences WHERE owner_id = ?`, ownerID); err != nil {
		return 0, fmt.Errorf("count preferences: %w", err)
	}
	return n, nil
}
