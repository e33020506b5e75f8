package worker

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

var quiet = log.New(log.Config{Output: io.Discard})

type fakePurger struct {
	cutoff time.Time
	err    error
}

func (f *fakePurger) PurgeExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	f.cutoff = now
	return 2, f.err
}

func TestSweepSessionsUsesCurrentTime(t *testing.T) {
	p := &fakePurger{}
	s := NewSweeper(p, quiet)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.SweepSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, fixed, p.cutoff)
}

func TestSweepSessionsWrapsError(t *testing.T) {
	cause := errors.New("db down")
	s := NewSweeper(&fakePurger{err: cause}, quiet)

	n, err := s.SweepSessions(context.Background())
	assert.ErrorIs(t, err, cause)
	assert.Zero(t, n)
}

func TestSweeperPurgesStoredSessions(t *testing.T) {
	ctx := context.Background()
	store, err := storage.Open(ctx, storage.Options{
		Driver:     storage.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sweep.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	u, err := store.CreateUser(ctx, core.User{Username: "alice", Email: "a@example.com", PasswordHash: "x", Active: true})
	require.NoError(t, err)
	past := time.Now().Add(-time.Hour)
	require.NoError(t, store.CreateSession(ctx, storage.Session{
		Token:     "3f1c1f1e-6d1a-4a57-9d7e-6f0c4f7a1b2c",
		UserID:    u.ID,
		ExpiresAt: past,
	}, past.Add(-time.Hour)))
	require.NoError(t, store.CreateSession(ctx, storage.Session{
		Token:     "9a0e2b4c-1d3f-4e5a-8b7c-6d5e4f3a2b1c",
		UserID:    u.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}, time.Now()))

	n, err := NewSweeper(store, quiet).SweepSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, _, err = store.GetSession(ctx, "9a0e2b4c-1d3f-4e5a-8b7c-6d5e4f3a2b1c", time.Now())
	assert.NoError(t, err)
}
