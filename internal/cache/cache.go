// Package cache holds the authoritative contest snapshot between
// refresh cycles.
package cache

import (
	"sync/atomic"

	"contest_aggregator/internal/domain"
)

// Cache stores the current snapshot behind an atomic pointer. Replace
// swaps the whole list at once, so readers observe either the previous
// or the new snapshot, never a mix, and never block on a writer.
type Cache struct {
	snapshot atomic.Pointer[[]domain.Contest]
}

// New creates a cache holding an empty, non-nil snapshot.
func New() *Cache {
	c := &Cache{}
	empty := make([]domain.Contest, 0)
	c.snapshot.Store(&empty)
	return c
}

// Snapshot returns the current contest list. Callers must not mutate it.
func (c *Cache) Snapshot() []domain.Contest {
	return *c.snapshot.Load()
}

// Replace installs a new snapshot.
func (c *Cache) Replace(contests []domain.Contest) {
	c.snapshot.Store(&contests)
}

// Len reports the size of the current snapshot.
func (c *Cache) Len() int {
	return len(c.Snapshot())
}
