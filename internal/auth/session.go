package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/storage"
)

const (
	SessionCookieName = "session"
	DefaultSessionTTL = 30 * 24 * time.Hour
)

// SessionStore is the persistence the session manager needs.
type SessionStore interface {
	CreateSession(ctx context.Context, s storage.Session, now time.Time) error
	GetSession(ctx context.Context, token string, now time.Time) (storage.Session, core.User, error)
	ExtendSession(ctx context.Context, token string, expiresAt time.Time) error
	DeleteSession(ctx context.Context, token string) error
}

// Sessions issues and resolves rolling login sessions. A session that is
// past half of its lifetime is pushed forward by a full TTL when used.
type Sessions struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
}

func NewSessions(store SessionStore, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{store: store, ttl: ttl, now: time.Now}
}

// WithClock returns a copy reading time from now.
func (s *Sessions) WithClock(now func() time.Time) *Sessions {
	cp := *s
	cp.now = now
	return &cp
}

func (s *Sessions) TTL() time.Duration { return s.ttl }

// Create starts a session for userID.
func (s *Sessions) Create(ctx context.Context, userID int64) (storage.Session, error) {
	now := s.now()
	sess := storage.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, sess, now); err != nil {
		return storage.Session{}, err
	}
	return sess, nil
}

// Resolve returns the session and user behind token. renewed is true when
// the expiry moved and the cookie must be rewritten. Unknown and expired
// tokens yield core.ErrNotFound.
func (s *Sessions) Resolve(ctx context.Context, token string) (sess storage.Session, user core.User, renewed bool, err error) {
	if token == "" {
		return storage.Session{}, core.User{}, false, fmt.Errorf("empty session token: %w", core.ErrNotFound)
	}
	if _, err := uuid.Parse(token); err != nil {
		return storage.Session{}, core.User{}, false, fmt.Errorf("malformed session token: %w", core.ErrNotFound)
	}

	now := s.now()
	sess, user, err = s.store.GetSession(ctx, token, now)
	if err != nil {
		return storage.Session{}, core.User{}, false, err
	}
	if !user.Active {
		return storage.Session{}, core.User{}, false, core.ErrInactiveUser
	}

	if sess.ExpiresAt.Sub(now) < s.ttl/2 {
		next := now.Add(s.ttl)
		if err := s.store.ExtendSession(ctx, token, next); err != nil {
			// The current session is still valid.
			return sess, user, false, nil
		}
		sess.ExpiresAt = next
		renewed = true
	}
	return sess, user, renewed, nil
}

// Destroy ends the session; unknown tokens are ignored.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.DeleteSession(ctx, token)
}
