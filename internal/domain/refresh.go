package domain

import "time"

// RefreshStats holds statistics about one refresh cycle.
type RefreshStats struct {
	SourceCounts map[string]int
	Fetched      int
	Cached       int
	New          int
	UsedFallback bool
	Duration     time.Duration
}

// RefreshState tracks refresh history in the optional archive store.
type RefreshState struct {
	ID              int64     `db:"id"`
	LastRefreshedAt time.Time `db:"last_refreshed_at"`
	RefreshCount    int64     `db:"refresh_count"`
	TotalCached     int64     `db:"total_cached"`
}
