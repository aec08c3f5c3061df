package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/ris-station-index/internal/pipeline"
)

// RunState is what the server needs from a pipeline: readiness and the last
// completed run.
type RunState interface {
	sharedobs.ReadinessChecker
	LastRun() (pipeline.Summary, bool)
}

// Server exposes health, readiness, run status and metrics while the
// indexer is running.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /status and
// /metrics routes. Metrics come from gatherer; production passes
// prometheus.DefaultGatherer.
func NewServer(addr string, state RunState, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(state))
	mux.HandleFunc("GET /status", handleStatus(state))
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains connections within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the mux so tests can drive the routes directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type statusResponse struct {
	Fetched    int     `json:"fetched"`
	Pages      int     `json:"pages"`
	Indexed    int     `json:"indexed"`
	Missed     int     `json:"missed"`
	Skipped    int     `json:"skipped"`
	Published  int     `json:"published"`
	Truncated  bool    `json:"truncated"`
	DurationMS int64   `json:"duration_ms"`
	IndexJSON  string  `json:"index_json"`
	IndexCSV   string  `json:"index_csv"`
	Misses     *string `json:"misses"`
}

func handleStatus(state RunState) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		sum, ok := state.LastRun()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no completed run"})
			return
		}
		resp := statusResponse{
			Fetched:    sum.Fetched,
			Pages:      sum.Pages,
			Indexed:    sum.Indexed,
			Missed:     sum.Missed,
			Skipped:    sum.Skipped,
			Published:  sum.Published,
			Truncated:  sum.Truncated,
			DurationMS: sum.Duration.Milliseconds(),
			IndexJSON:  sum.Paths.IndexJSON,
			IndexCSV:   sum.Paths.IndexCSV,
		}
		if sum.Paths.Misses != "" {
			resp.Misses = &sum.Paths.Misses
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort status response
}
