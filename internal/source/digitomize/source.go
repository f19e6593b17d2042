package digitomize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"contest_aggregator/internal/domain"
)

const (
	SourceID   = "digitomize"
	SourceName = "Digitomize"

	defaultHost = "Digitomize"
	defaultURL  = "https://digitomize.com/contests"
)

// Config holds Digitomize source configuration.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source fetches upcoming contests from the Digitomize API. The API has
// no stable contract: the body may be a bare array or an object wrapping
// one, and field names drift between deployments, so every logical field
// is resolved through an ordered fallback list.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// New creates a new Digitomize source.
func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
		now:            time.Now,
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

// FetchContests fetches upcoming contests. Failures are logged and yield
// an empty list; they never reach the caller.
func (s *Source) FetchContests(ctx context.Context) []domain.Contest {
	body, err := s.fetch(ctx)
	if err != nil {
		s.logger.Warn("fetch failed, contributing nothing", "error", err)
		return nil
	}

	records := findRecordList(body)
	contests := s.transform(records)

	s.logger.Debug("fetched contests",
		"raw", len(records),
		"upcoming", len(contests),
	)

	return contests
}

func (s *Source) fetch(ctx context.Context) ([]byte, error) {
	var body []byte
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		body, err = s.doRequest(ctx)
		if err == nil {
			return body, nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.httpClient.Do(req)
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

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

func (s *Source) transform(records []record) []domain.Contest {
	now := s.now().Unix()
	contests := make([]domain.Contest, 0, len(records))

	for _, r := range records {
		start := r.firstUnix(startFields)
		if start <= now {
			continue
		}

		name := r.firstString(nameFields)
		if name == "" {
			continue
		}

		host := r.firstString(hostFields)
		if host == "" {
			host = defaultHost
		}

		url := r.firstString(urlFields)
		if url == "" {
			url = defaultURL
		}

		contests = append(contests, domain.Contest{
			Host:          host,
			Name:          name,
			URL:           url,
			StartTimeUnix: start,
		})
	}

	return contests
}
