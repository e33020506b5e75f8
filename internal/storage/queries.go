package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"expenses/internal/core"
)

// Queries holds every statement of the application. It runs against the
// pool or a transaction; statements use ? placeholders and are rebound for
// the active driver.
type Queries struct {
	db sqlx.ExtContext
}

func New(db sqlx.ExtContext) *Queries {
	return &Queries{db: db}
}

func (q *Queries) get(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, q.db, dest, q.db.Rebind(query), args...)
}

func (q *Queries) list(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.db, dest, q.db.Rebind(query), args...)
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.db.Rebind(query), args...)
}

// execOne runs a statement expected to touch exactly one row.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// insert runs an INSERT ... RETURNING id statement.
func (q *Queries) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := q.get(ctx, &id, query+" RETURNING id", args...); err != nil {
		return 0, err
	}
	return id, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return strings.Contains(liteErr.Error(), "FOREIGN KEY constraint failed")
	}
	return false
}
