package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"contest_aggregator/internal/domain"
)

// Refresher defines the interface for refresh operations. A refresh
// cannot fail; it always leaves the cache in a servable state.
type Refresher interface {
	Refresh(ctx context.Context) *domain.RefreshStats
}

// Scheduler runs one refresh at startup and then one per interval.
// Cycles are strictly serialized: a tick that arrives while a refresh is
// still in flight is skipped, never run alongside it.
type Scheduler struct {
	refresher  Refresher
	interval   time.Duration
	runTimeout time.Duration
	refreshing atomic.Bool
	logger     *slog.Logger
}

func NewScheduler(refresher Refresher, interval, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher:  refresher,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runRefresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runRefresh(ctx)
		}
	}
}

// Refreshing reports whether a refresh cycle is currently in flight.
func (s *Scheduler) Refreshing() bool {
	return s.refreshing.Load()
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	if !s.refreshing.CompareAndSwap(false, true) {
		s.logger.Warn("refresh still in flight, skipping cycle")
		return
	}
	defer s.refreshing.Store(false)

	refreshCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	stats := s.refresher.Refresh(refreshCtx)

	s.logger.Debug("refresh cycle finished",
		"cached", stats.Cached,
		"new", stats.New,
		"fallback", stats.UsedFallback,
	)
}
