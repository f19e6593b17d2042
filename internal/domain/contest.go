package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"
)

// Contest is a normalized contest announcement from any source.
type Contest struct {
	Host          string `json:"host" db:"host"`
	Name          string `json:"name" db:"name"`
	URL           string `json:"url" db:"url"`
	StartTimeUnix int64  `json:"startTimeUnix" db:"start_time_unix"`
}

// Key is the deduplication identity. Two sources announcing the same
// contest agree on name and start time even when they disagree on host
// or URL.
func (c Contest) Key() string {
	return fmt.Sprintf("%s|%d", c.Name, c.StartTimeUnix)
}

// Normalize turns the concatenation of source outputs into a cacheable
// snapshot: records without a name or a resolved start time are dropped,
// the first occurrence of each Key wins, and the result is sorted
// ascending by start time. Normalizing an already-normalized list
// returns it unchanged.
func Normalize(contests []Contest) []Contest {
	usable := make([]Contest, 0, len(contests))
	for _, c := range contests {
		if c.Name == "" || c.StartTimeUnix <= 0 {
			continue
		}
		usable = append(usable, c)
	}

	deduped := lo.UniqBy(usable, Contest.Key)

	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].StartTimeUnix < deduped[j].StartTimeUnix
	})

	return deduped
}

// Fallback is the snapshot served when every source came back empty, so
// consumers always receive a non-empty, well-formed list.
func Fallback(now time.Time) []Contest {
	base := now.Unix() + 86400
	return []Contest{
		{Host: "Fallback", Name: "Weekly Coding Contest", URL: "#", StartTimeUnix: base},
		{Host: "Fallback", Name: "Hackathon", URL: "#", StartTimeUnix: base + 86400},
	}
}
