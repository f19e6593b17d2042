// Package metrics exposes Prometheus instrumentation for the
// aggregation pipeline on a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contest_aggregator"

var registry = prometheus.NewRegistry()

var (
	refreshTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "refresh_total",
		Help:      "Completed refresh cycles by result.",
	}, []string{"result"})

	refreshDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "refresh_duration_seconds",
		Help:      "Wall time of a full refresh cycle.",
		Buckets:   prometheus.DefBuckets,
	})

	contestsCached = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "contests_cached",
		Help:      "Size of the current contest snapshot.",
	})

	sourceFetched = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_contests_fetched_total",
		Help:      "Contest records contributed per source.",
	}, []string{"source"})

	httpRequests = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests served by handler.",
	}, []string{"handler"})
)

// Registry returns the registry backing the /metrics endpoint.
func Registry() *prometheus.Registry {
	return registry
}

func RecordRefresh(usedFallback bool, d time.Duration) {
	result := "ok"
	if usedFallback {
		result = "fallback"
	}
	refreshTotal.WithLabelValues(result).Inc()
	refreshDuration.Observe(d.Seconds())
}

func SetContestsCached(n int) {
	contestsCached.Set(float64(n))
}

func RecordSourceFetch(source string, n int) {
	sourceFetched.WithLabelValues(source).Add(float64(n))
}

func RecordHTTPRequest(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
