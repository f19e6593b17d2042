package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"contest_aggregator/internal/cache"
	"contest_aggregator/internal/domain"
	"contest_aggregator/internal/metrics"
)

// Aggregator runs one refresh cycle: fan out to every source, merge and
// normalize the results, swap the cache, then feed the optional side
// channels. The store, state store, transaction manager and publisher
// may all be nil; the pipeline is complete without them, and their
// failures never fail a refresh.
type Aggregator struct {
	sources      []Source
	cache        *cache.Cache
	contests     ContestStore
	refreshState RefreshStateStore
	txManager    TransactionManager
	publisher    Publisher
	logger       *slog.Logger
	now          func() time.Time
}

func NewAggregator(
	sources []Source,
	cache *cache.Cache,
	contests ContestStore,
	refreshState RefreshStateStore,
	txManager TransactionManager,
	publisher Publisher,
	logger *slog.Logger,
) *Aggregator {
	return &Aggregator{
		sources:      sources,
		cache:        cache,
		contests:     contests,
		refreshState: refreshState,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
		now:          time.Now,
	}
}

// Refresh assembles and installs a new snapshot. It cannot fail from the
// caller's perspective: the worst possible outcome is the fallback set.
func (a *Aggregator) Refresh(ctx context.Context) *domain.RefreshStats {
	startedAt := time.Now()
	stats := &domain.RefreshStats{
		SourceCounts: make(map[string]int, len(a.sources)),
	}

	// Sources are independent network calls; run them concurrently and
	// join before normalization. They fail soft, so Wait never errors.
	results := make([][]domain.Contest, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			results[i] = src.FetchContests(gctx)
			return nil
		})
	}
	_ = g.Wait()

	// Concatenate in configured source order so first-wins deduplication
	// is deterministic.
	var combined []domain.Contest
	for i, src := range a.sources {
		stats.SourceCounts[src.ID()] = len(results[i])
		metrics.RecordSourceFetch(src.ID(), len(results[i]))
		combined = append(combined, results[i]...)
	}
	stats.Fetched = len(combined)

	snapshot := domain.Normalize(combined)
	if len(snapshot) == 0 {
		snapshot = domain.Fallback(a.now())
		stats.UsedFallback = true
	}

	previous := a.cache.Snapshot()
	a.cache.Replace(snapshot)
	stats.Cached = len(snapshot)

	discovered := newContests(previous, snapshot)
	stats.New = len(discovered)

	a.archive(ctx, snapshot)
	a.announce(ctx, discovered)

	stats.Duration = time.Since(startedAt)
	metrics.RecordRefresh(stats.UsedFallback, stats.Duration)
	metrics.SetContestsCached(stats.Cached)

	a.logger.Info("refresh completed",
		"fetched", stats.Fetched,
		"cached", stats.Cached,
		"new", stats.New,
		"fallback", stats.UsedFallback,
		"duration", stats.Duration,
	)

	return stats
}

// newContests returns snapshot entries whose key was absent from the
// previous snapshot.
func newContests(previous, snapshot []domain.Contest) []domain.Contest {
	seen := make(map[string]struct{}, len(previous))
	for _, c := range previous {
		seen[c.Key()] = struct{}{}
	}

	var discovered []domain.Contest
	for _, c := range snapshot {
		if _, ok := seen[c.Key()]; !ok {
			discovered = append(discovered, c)
		}
	}
	return discovered
}

// archive records the snapshot and refresh bookkeeping in one
// transaction. Best effort: a failure is logged and forgotten.
func (a *Aggregator) archive(ctx context.Context, snapshot []domain.Contest) {
	if a.contests == nil || a.refreshState == nil || a.txManager == nil {
		return
	}

	err := a.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := a.contests.UpsertBatch(txCtx, snapshot); err != nil {
			return fmt.Errorf("upsert contests: %w", err)
		}

		state, err := a.refreshState.Get(txCtx)
		if err != nil {
			return fmt.Errorf("load refresh state: %w", err)
		}

		state.LastRefreshedAt = a.now()
		state.RefreshCount++
		state.TotalCached += int64(len(snapshot))

		return a.refreshState.Update(txCtx, state)
	})
	if err != nil {
		a.logger.Error("archive failed", "error", err)
	}
}

// announce publishes contests seen for the first time. Best effort.
func (a *Aggregator) announce(ctx context.Context, discovered []domain.Contest) {
	if a.publisher == nil {
		return
	}

	for i := range discovered {
		if err := a.publisher.Publish(ctx, &discovered[i]); err != nil {
			a.logger.Error("publish failed", "name", discovered[i].Name, "error", err)
		}
	}
}
