package scheduler

import (
	"context"
	"time"

	"leadscout_backend/platform/logger"
)

const (
	defaultSweepInterval  = 10 * time.Minute
	defaultPendingTimeout = time.Hour
	staleAuditReason      = "audit timed out while pending"
)

// StalePendingFailer fails audits stuck in pending.
type StalePendingFailer interface {
	FailStalePending(ctx context.Context, before time.Time, reason string) (int64, error)
}

// StaleAuditSweeper periodically fails audits whose job never finished.
type StaleAuditSweeper struct {
	repo           StalePendingFailer
	log            *logger.Logger
	interval       time.Duration
	pendingTimeout time.Duration
	now            func() time.Time
}

func NewStaleAuditSweeper(repo StalePendingFailer, log *logger.Logger, interval, pendingTimeout time.Duration) *StaleAuditSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if pendingTimeout <= 0 {
		pendingTimeout = defaultPendingTimeout
	}

	return &StaleAuditSweeper{
		repo:           repo,
		log:            log,
		interval:       interval,
		pendingTimeout: pendingTimeout,
		now:            time.Now,
	}
}

func (s *StaleAuditSweeper) Run(ctx context.Context) {
	if s == nil || s.repo == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StaleAuditSweeper) sweep(ctx context.Context) int64 {
	failed, err := s.repo.FailStalePending(ctx, s.now().Add(-s.pendingTimeout), staleAuditReason)
	if err != nil {
		s.log.Warn("stale audit sweep failed", "error", err)
		return 0
	}

	if failed > 0 {
		s.log.Info("stale audit sweep failed pending audits", "failed", failed)
	}
	return failed
}
