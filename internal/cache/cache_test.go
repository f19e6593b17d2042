package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest_aggregator/internal/domain"
)

func TestCache_StartsEmptyNonNil(t *testing.T) {
	c := New()

	require.NotNil(t, c.Snapshot())
	assert.Empty(t, c.Snapshot())
	assert.Equal(t, 0, c.Len())
}

func TestCache_ReplaceIsVisible(t *testing.T) {
	c := New()
	contests := []domain.Contest{
		{Host: "CF", Name: "Div 2", URL: "u", StartTimeUnix: 1000},
	}

	c.Replace(contests)

	assert.Equal(t, contests, c.Snapshot())
	assert.Equal(t, 1, c.Len())
}

func TestCache_ReadersSeeWholeSnapshots(t *testing.T) {
	c := New()
	odd := []domain.Contest{{Name: "a", StartTimeUnix: 1}}
	even := []domain.Contest{{Name: "b", StartTimeUnix: 2}, {Name: "c", StartTimeUnix: 3}}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if i%2 == 0 {
				c.Replace(even)
			} else {
				c.Replace(odd)
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := c.Snapshot()
			// Either snapshot is fine; a torn one is not.
			if len(snap) != 0 && len(snap) != 1 && len(snap) != 2 {
				t.Errorf("torn snapshot of length %d", len(snap))
				return
			}
		}
	}()

	wg.Wait()
}
