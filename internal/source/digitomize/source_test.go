package digitomize

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contest_aggregator/internal/domain"
)

var testNow = time.Unix(1_700_000_000, 0)

func newTestSource(t *testing.T, handler http.HandlerFunc, maxAttempts int) *Source {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	src := New(Config{
		BaseURL:        srv.URL,
		Timeout:        2 * time.Second,
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}, logger)
	src.now = func() time.Time { return testNow }
	return src
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestFetchContests_BareArray(t *testing.T) {
	src := newTestSource(t, jsonHandler(`[
		{"host": "CF", "name": "Div 2", "url": "https://cf/1", "startTimeUnix": 1700003600},
		{"host": "CF", "name": "Old Round", "url": "https://cf/2", "startTimeUnix": 1600000000}
	]`), 1)

	got := src.FetchContests(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, domain.Contest{
		Host: "CF", Name: "Div 2", URL: "https://cf/1", StartTimeUnix: 1700003600,
	}, got[0])
}

func TestFetchContests_ContestsField(t *testing.T) {
	src := newTestSource(t, jsonHandler(`{"total": 1, "contests": [
		{"host": "LC", "name": "Weekly", "url": "https://lc", "startTimeUnix": 1700003600}
	]}`), 1)

	got := src.FetchContests(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "Weekly", got[0].Name)
}

func TestFetchContests_FirstArrayFieldAnywhere(t *testing.T) {
	src := newTestSource(t, jsonHandler(`{"meta": {"page": 1}, "results": [
		{"host": "AC", "name": "ABC 330", "url": "https://ac", "startTimeUnix": 1700003600}
	]}`), 1)

	got := src.FetchContests(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "ABC 330", got[0].Name)
}

func TestFetchContests_FieldFallbacksAndDefaults(t *testing.T) {
	src := newTestSource(t, jsonHandler(`[
		{"platform": "AtCoder", "title": "ABC 330", "link": "https://ac/abc330", "startTime": 1700003600},
		{"name": "Nameless Host", "start_time": "1700007200"}
	]`), 1)

	got := src.FetchContests(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, domain.Contest{
		Host: "AtCoder", Name: "ABC 330", URL: "https://ac/abc330", StartTimeUnix: 1700003600,
	}, got[0])
	assert.Equal(t, domain.Contest{
		Host: defaultHost, Name: "Nameless Host", URL: defaultURL, StartTimeUnix: 1700007200,
	}, got[1])
}

func TestFetchContests_NullFieldBeforeArray(t *testing.T) {
	// "data" sorts before "results"; a null value must not end the search.
	src := newTestSource(t, jsonHandler(`{"data": null, "results": [
		{"host": "CF", "name": "Div 2", "url": "https://cf", "startTimeUnix": 1700003600}
	]}`), 1)

	got := src.FetchContests(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "Div 2", got[0].Name)
}

func TestFetchContests_NullContestsField(t *testing.T) {
	src := newTestSource(t, jsonHandler(`{"contests": null, "upcoming": [
		{"host": "AC", "name": "ABC 331", "url": "https://ac", "startTimeUnix": 1700003600}
	]}`), 1)

	got := src.FetchContests(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, "ABC 331", got[0].Name)
}

func TestFetchContests_DropsRecordsWithoutNameOrStart(t *testing.T) {
	src := newTestSource(t, jsonHandler(`[
		{"host": "CF", "url": "https://cf", "startTimeUnix": 1700003600},
		{"host": "CF", "name": "No start", "url": "https://cf"}
	]`), 1)

	assert.Empty(t, src.FetchContests(context.Background()))
}

func TestFetchContests_NonJSONBody(t *testing.T) {
	src := newTestSource(t, jsonHandler(`<html>maintenance</html>`), 1)

	assert.Empty(t, src.FetchContests(context.Background()))
}

func TestFetchContests_UpstreamErrorYieldsEmpty(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, 2)

	assert.Empty(t, src.FetchContests(context.Background()))
}

func TestFetchContests_RetriesThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"host": "CF", "name": "Div 2", "url": "https://cf", "startTimeUnix": 1700003600}]`))
	}, 3)

	got := src.FetchContests(context.Background())

	require.Len(t, got, 1)
	assert.Equal(t, int32(2), attempts.Load())
}
