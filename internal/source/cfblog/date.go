package cfblog

import (
	"regexp"
	"strings"
	"time"
)

// Announcements write timezones as parenthetical remarks ("(Moscow
// time)", "(UTC+3)") that no layout can absorb; they are stripped before
// parsing.
var parenthetical = regexp.MustCompile(`\(.*?\)`)

// Layouts tried in order against candidate dates and feed pubDates.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"January 2, 2006 15:04",
	"January 2, 2006",
	"2 January 2006 15:04",
	"2 January 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
}

// parseDateToUnix resolves a free-text date to a Unix timestamp, or 0
// when no layout matches.
func parseDateToUnix(s string) int64 {
	cleaned := parenthetical.ReplaceAllString(s, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return 0
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.Unix()
		}
	}

	return 0
}
