// Package cfblog turns the Codeforces blog feed into contest records.
// The feed itself is fetched through an ordered list of retrieval
// strategies (direct, then public relay proxies), and each announcement
// post is run through the language-model extraction backend.
package cfblog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"contest_aggregator/internal/domain"
	"contest_aggregator/internal/extraction"
)

const (
	SourceID   = "cfblog"
	SourceName = "Codeforces Blog"
)

// contestKeywords pre-filters feed items before spending an extraction
// call. A tunable heuristic: misses here cost a missed contest, not a
// wrong one.
var contestKeywords = regexp.MustCompile(`(?i)contest|round|cup|challenge|abc|arc|ahc`)

// Bucket names double as the default host when a candidate names no
// organizer.
var bucketHosts = []string{"platform", "college", "company"}

// Extractor pulls contest candidates out of a page's plain text.
type Extractor interface {
	ExtractContests(ctx context.Context, pageURL, text string) (extraction.Buckets, error)
}

// fetchStrategy is one way of retrieving the feed document.
type fetchStrategy struct {
	name string
	wrap func(feedURL string) string
}

func defaultStrategies() []fetchStrategy {
	return []fetchStrategy{
		{
			name: "direct",
			wrap: func(u string) string { return u },
		},
		{
			name: "allorigins",
			wrap: func(u string) string { return "https://api.allorigins.win/raw?url=" + url.QueryEscape(u) },
		},
		{
			name: "corsproxy",
			wrap: func(u string) string { return "https://corsproxy.io/?" + u },
		},
	}
}

// Config holds Codeforces blog source configuration.
type Config struct {
	FeedURL     string
	Timeout     time.Duration
	PageTimeout time.Duration
}

// Source implements the contest source contract over the blog feed.
type Source struct {
	feedClient *http.Client
	pageClient *http.Client
	feedURL    string
	strategies []fetchStrategy
	extractor  Extractor
	logger     *slog.Logger
}

// New creates a new Codeforces blog source.
func New(cfg Config, extractor Extractor, logger *slog.Logger) *Source {
	return &Source{
		feedClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		pageClient: &http.Client{
			Timeout: cfg.PageTimeout,
		},
		feedURL:    cfg.FeedURL,
		strategies: defaultStrategies(),
		extractor:  extractor,
		logger:     logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (s *Source) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (s *Source) Name() string {
	return SourceName
}

// FetchContests retrieves the feed, filters items likely to announce a
// contest, and extracts records from each. Items are processed
// sequentially so the extraction backend sees at most one call at a
// time; one item's failure never aborts its siblings.
func (s *Source) FetchContests(ctx context.Context) []domain.Contest {
	body := s.fetchFeed(ctx)
	if body == nil {
		s.logger.Warn("every feed retrieval strategy failed, contributing nothing")
		return nil
	}

	items := parseFeed(body)
	if len(items) == 0 {
		s.logger.Warn("feed parsed to zero items")
		return nil
	}

	var contests []domain.Contest
	for _, it := range items {
		if !contestKeywords.MatchString(it.Title) {
			continue
		}

		extracted, err := s.extractItem(ctx, it)
		if err != nil {
			s.logger.Warn("item extraction failed",
				"title", it.Title,
				"link", it.Link,
				"error", err,
			)
			continue
		}

		contests = append(contests, extracted...)
	}

	s.logger.Debug("fetched contests", "items", len(items), "contests", len(contests))

	return contests
}

// fetchFeed tries each strategy in order and returns the first body that
// looks like a feed document, or nil when all of them fail.
func (s *Source) fetchFeed(ctx context.Context) []byte {
	for _, strat := range s.strategies {
		body, err := s.get(ctx, s.feedClient, strat.wrap(s.feedURL))
		if err != nil {
			s.logger.Debug("feed retrieval failed", "strategy", strat.name, "error", err)
			continue
		}
		if !looksLikeFeed(body) {
			s.logger.Debug("feed retrieval returned non-feed body", "strategy", strat.name)
			continue
		}
		return body
	}
	return nil
}

func (s *Source) extractItem(ctx context.Context, it feedItem) ([]domain.Contest, error) {
	page, err := s.get(ctx, s.pageClient, it.Link)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	buckets, err := s.extractor.ExtractContests(ctx, it.Link, pageText(string(page)))
	if err != nil {
		return nil, fmt.Errorf("extract contests: %w", err)
	}

	candidates := [][]extraction.Candidate{
		buckets.PlatformContests,
		buckets.CollegeContests,
		buckets.CompanyContests,
	}

	var contests []domain.Contest
	for i, bucket := range candidates {
		for _, cand := range bucket {
			if cand.Name == "" {
				continue
			}

			start := parseDateToUnix(cand.Date)
			if start == 0 {
				start = parseDateToUnix(it.PubDate)
			}
			if start == 0 {
				continue
			}

			host := cand.Organizer
			if host == "" {
				host = bucketHosts[i]
			}

			contestURL := cand.URL
			if contestURL == "" {
				contestURL = it.Link
			}

			contests = append(contests, domain.Contest{
				Host:          host,
				Name:          cand.Name,
				URL:           contestURL,
				StartTimeUnix: start,
			})
		}
	}

	return contests, nil
}

func (s *Source) get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return body, nil
}
