// Package worker holds maintenance passes run from expensesctl, typically
// on a schedule outside the server process.
package worker

import (
	"context"
	"fmt"
	"time"

	"expenses/internal/log"
)

// SessionPurger deletes sessions that expired before now.
type SessionPurger interface {
	PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper removes expired login sessions. Expired sessions are already
// rejected at lookup; sweeping only reclaims their rows.
type Sweeper struct {
	sessions SessionPurger
	logger   *log.Logger
	now      func() time.Time
}

func NewSweeper(sessions SessionPurger, logger *log.Logger) *Sweeper {
	if logger == nil {
		logger = log.Default()
	}
	return &Sweeper{
		sessions: sessions,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// SweepSessions runs one pass and returns how many sessions were removed.
func (s *Sweeper) SweepSessions(ctx context.Context) (int64, error) {
	started := s.now()
	n, err := s.sessions.PurgeExpiredSessions(ctx, started)
	if err != nil {
		s.logger.ErrorContext(ctx, "Session sweep failed", log.FieldError, err)
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	s.logger.InfoContext(ctx, "Session sweep completed",
		"removed", n,
		"duration_ms", s.now().Sub(started).Milliseconds())
	return n, nil
}
