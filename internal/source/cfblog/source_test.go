package cfblog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest_aggregator/internal/extraction"
)

type stubExtractor struct {
	buckets map[string]extraction.Buckets
	errs    map[string]error
	calls   []string
}

func (s *stubExtractor) ExtractContests(ctx context.Context, pageURL, text string) (extraction.Buckets, error) {
	s.calls = append(s.calls, pageURL)
	if err := s.errs[pageURL]; err != nil {
		return extraction.Buckets{}, err
	}
	return s.buckets[pageURL], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// feedFixture builds an RSS body whose items link into the test server.
func feedFixture(base string, titles ...string) string {
	items := ""
	for i, title := range titles {
		items += fmt.Sprintf(
			"<item><title>%s</title><link>%s/post/%d</link><pubDate>Thu, 05 Dec 2024 10:00:00 GMT</pubDate></item>",
			title, base, i,
		)
	}
	return `<?xml version="1.0"?><rss version="2.0"><channel>` + items + `</channel></rss>`
}

func newTestSource(t *testing.T, mux *http.ServeMux, extractor Extractor) (*Source, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	src := New(Config{
		FeedURL:     srv.URL + "/feed",
		Timeout:     2 * time.Second,
		PageTimeout: 2 * time.Second,
	}, extractor, testLogger())
	return src, srv
}

func TestFetchContests_KeywordPreFilter(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedFixture(srvURL,
			"Codeforces Round 900 Announcement",
			"My journey to become a better problem setter",
			"TheForces Cup registration open",
		)))
	})
	mux.HandleFunc("/post/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>announcement text</body></html>"))
	})

	extractor := &stubExtractor{}
	src, srv := newTestSource(t, mux, extractor)
	srvURL = srv.URL

	src.FetchContests(context.Background())

	// Only the two contest-looking titles reach the extraction backend.
	require.Len(t, extractor.calls, 2)
	assert.Equal(t, srv.URL+"/post/0", extractor.calls[0])
	assert.Equal(t, srv.URL+"/post/2", extractor.calls[1])
}

func TestFetchContests_BucketMapping(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedFixture(srvURL, "Upcoming contest digest")))
	})
	mux.HandleFunc("/post/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>digest</body></html>"))
	})

	extractor := &stubExtractor{buckets: map[string]extraction.Buckets{}}
	src, srv := newTestSource(t, mux, extractor)
	srvURL = srv.URL

	extractor.buckets[srv.URL+"/post/0"] = extraction.Buckets{
		PlatformContests: []extraction.Candidate{
			{Name: "Round 900", Date: "Dec 5, 2024 (Moscow time)", URL: "https://cf/900", Organizer: "Codeforces"},
		},
		CollegeContests: []extraction.Candidate{
			{Name: "ICPC Regionals", Date: "Dec 7, 2024"},
		},
		CompanyContests: []extraction.Candidate{
			{Name: "Hash Code", Date: "not a date"}, // falls back to pubDate
			{Name: "", Date: "Dec 9, 2024"},         // nameless, dropped
		},
	}

	got := src.FetchContests(context.Background())

	require.Len(t, got, 3)

	assert.Equal(t, "Codeforces", got[0].Host)
	assert.Equal(t, "Round 900", got[0].Name)
	assert.Equal(t, "https://cf/900", got[0].URL)
	assert.Equal(t, parseDateToUnix("Dec 5, 2024"), got[0].StartTimeUnix)

	// No organizer: bucket name is the host. No URL: the post link is.
	assert.Equal(t, "college", got[1].Host)
	assert.Equal(t, srv.URL+"/post/0", got[1].URL)

	assert.Equal(t, "company", got[2].Host)
	assert.Equal(t, parseDateToUnix("Thu, 05 Dec 2024 10:00:00 GMT"), got[2].StartTimeUnix)
}

func TestFetchContests_ItemFailureDoesNotAbortSiblings(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedFixture(srvURL, "Round 901", "Round 902")))
	})
	mux.HandleFunc("/post/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>post</body></html>"))
	})

	extractor := &stubExtractor{
		errs:    map[string]error{},
		buckets: map[string]extraction.Buckets{},
	}
	src, srv := newTestSource(t, mux, extractor)
	srvURL = srv.URL

	extractor.errs[srv.URL+"/post/0"] = errors.New("model returned garbage")
	extractor.buckets[srv.URL+"/post/1"] = extraction.Buckets{
		PlatformContests: []extraction.Candidate{{Name: "Round 902", Date: "Dec 5, 2024"}},
	}

	got := src.FetchContests(context.Background())

	require.Len(t, extractor.calls, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "Round 902", got[0].Name)
}

func TestFetchContests_ProxyFallback(t *testing.T) {
	mux := http.NewServeMux()
	var srvURL string
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		// Direct access blocked, as it is for browsers without CORS.
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/relay", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedFixture(srvURL, "Round 903")))
	})
	mux.HandleFunc("/post/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>post</body></html>"))
	})

	extractor := &stubExtractor{buckets: map[string]extraction.Buckets{}}
	src, srv := newTestSource(t, mux, extractor)
	srvURL = srv.URL

	src.strategies = []fetchStrategy{
		{name: "direct", wrap: func(u string) string { return u }},
		{name: "relay", wrap: func(u string) string { return srv.URL + "/relay" }},
	}
	extractor.buckets[srv.URL+"/post/0"] = extraction.Buckets{
		PlatformContests: []extraction.Candidate{{Name: "Round 903", Date: "Dec 5, 2024"}},
	}

	got := src.FetchContests(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "Round 903", got[0].Name)
}

func TestFetchContests_NonFeedBodiesRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>captcha</body></html>"))
	})

	extractor := &stubExtractor{}
	src, _ := newTestSource(t, mux, extractor)
	src.strategies = []fetchStrategy{
		{name: "direct", wrap: func(u string) string { return u }},
	}

	assert.Empty(t, src.FetchContests(context.Background()))
	assert.Empty(t, extractor.calls)
}

func TestFetchContests_AllStrategiesFail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/feed", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	extractor := &stubExtractor{}
	src, _ := newTestSource(t, mux, extractor)
	src.strategies = []fetchStrategy{
		{name: "direct", wrap: func(u string) string { return u }},
		{name: "relay", wrap: func(u string) string { return u }},
	}

	assert.Empty(t, src.FetchContests(context.Background()))
}
