package storage

import (
	"context"
	"fmt"
	"time"

	"expenses/internal/core"
)

type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Active       bool   `db:"active"`
	CreatedAt    int64  `db:"created_at"`
}

func (r userRow) toCore() core.User {
	return core.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Active:       r.Active,
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
	}
}

const userColumns = `id, username, email, password_hash, active, created_at`

// CreateUser inserts a user. A taken username or email yields core.ErrDuplicate.
func (q *Queries) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	id, err := q.insert(ctx,
		`INSERT INTO users (username, email, password_hash, active, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Active, u.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return core.User{}, fmt.Errorf("create user %q: %w", u.Username, core.ErrDuplicate)
		}
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.ID = id
	u.CreatedAt = time.Unix(u.CreatedAt.Unix(), 0).UTC()
	return u, nil
}

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	var row userRow
	if err := q.get(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, notFound(err))
	}
	return row.toCore(), nil
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var row userRow
	if err := q.get(ctx, &row, `SELECT `+userColumns+` FROM users WHERE username = ?`, username); err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", username, notFound(err))
	}
	return row.toCore(), nil
}

// UsernameTaken reports whether a user already has this username.
func (q *Queries) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE username = ?`, username); err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

// EmailTaken reports whether a user already has this email, ignoring case.
func (q *Queries) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	if err := q.get(ctx, &n, `SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER(?)`, email); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return n > 0, nil
}

func (q *Queries) ActivateUser(ctx context.Context, id int64) error {
	if err := q.execOne(ctx, `UPDATE users SET active = ? WHERE id = ?`, true, id); err != nil {
		return fmt.Errorf("activate user %d: %w", id, err)
	}
	return nil
}

// DeleteUser removes a user; sessions, preference and ledger rows follow
// through ON DELETE CASCADE.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	if err := q.execOne(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// Session is a login session bound to a user.
type Session struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

func (q *Queries) CreateSession(ctx context.Context, s Session, now time.Time) error {
	_, err := q.exec(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		s.Token, s.UserID, s.ExpiresAt.Unix(), now.Unix())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession returns an unexpired session and its user.
func (q *Queries) GetSession(ctx context.Context, token string, now time.Time) (Session, core.User, error) {
	var row struct {
		userRow
		Token     string `db:"token"`
		ExpiresAt int64  `db:"expires_at"`
	}
	err := q.get(ctx, &row,
		`SELECT s.token, s.expires_at, u.id, u.username, u.email, u.password_hash, u.active, u.created_at
		 FROM sessions s JOIN users u ON u.id = s.user_id
		 WHERE s.token = ? AND s.expires_at > ?`,
		token, now.Unix())
	if err != nil {
		return Session{}, core.User{}, fmt.Errorf("get session: %w", notFound(err))
	}
	sess := Session{Token: row.Token, UserID: row.ID, ExpiresAt: time.Unix(row.ExpiresAt, 0).UTC()}
	return sess, row.userRow.toCore(), nil
}

func (q *Queries) ExtendSession(ctx context.Context, token string, expiresAt time.Time) error {
	if err := q.execOne(ctx, `UPDATE sessions SET expires_at = ? WHERE token = ?`, expiresAt.Unix(), token); err != nil {
		return fmt.Errorf("extend session: %w", err)
	}
	return nil
}

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	if _, err := q.exec(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions that expired before now.
func (q *Queries) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := q.exec(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}
