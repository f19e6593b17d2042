// Package server exposes the read-only HTTP surface over the cached
// snapshot. Handlers never block on an in-flight refresh: they serve
// whatever the cache holds right now.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"contest_aggregator/internal/domain"
	"contest_aggregator/internal/metrics"
)

// SnapshotReader is the read side of the cache.
type SnapshotReader interface {
	Snapshot() []domain.Contest
	Len() int
}

type Server struct {
	cache  SnapshotReader
	logger *slog.Logger
}

func New(cache SnapshotReader, logger *slog.Logger) *Server {
	return &Server{
		cache:  cache,
		logger: logger.With("component", "http"),
	}
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/contests", s.handleContests)
	mux.HandleFunc("GET /healthcheck", s.handleHealthcheck)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
}

func (s *Server) handleContests(w http.ResponseWriter, r *http.Request) {
	metrics.RecordHTTPRequest("contests")
	s.writeJSON(w, s.cache.Snapshot())
}

type healthResponse struct {
	Status         string `json:"status"`
	ContestsLoaded int    `json:"contestsLoaded"`
}

func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	metrics.RecordHTTPRequest("healthcheck")
	s.writeJSON(w, healthResponse{
		Status:         "ok",
		ContestsLoaded: s.cache.Len(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	// Browser clients on other origins read this API directly.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write response", "error", err)
	}
}
