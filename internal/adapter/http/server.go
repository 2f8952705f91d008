// Package http serves the aggregation and alert API alongside the health,
// readiness, and metrics endpoints.
package http

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/disaster-alert-service/internal/adapter/sqlite"
	"github.com/couchcryptid/disaster-alert-service/internal/alert"
	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 200
)

// Aggregator runs aggregation on demand.
type Aggregator interface {
	AggregateGlobal(ctx context.Context) domain.AggregationResult
	AggregateForLocation(ctx context.Context, location string) domain.AggregationResult
}

// AlertChecker evaluates alerts for a caller-supplied position.
type AlertChecker interface {
	CheckFrom(ctx context.Context, p alert.LocationProvider) domain.AlertCheckResult
}

// ReportArchive lists archived genuine reports.
type ReportArchive interface {
	Recent(ctx context.Context, limit int) ([]sqlite.ArchivedReport, error)
}

// API groups the handlers' dependencies. Archive may be nil when archiving
// is disabled.
type API struct {
	Aggregator Aggregator
	Alerts     AlertChecker
	Archive    ReportArchive
}

// Server exposes the v1 API plus /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, api API, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Location aggregation queues per-city news lookups.
			WriteTimeout: 90 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/disasters/global", s.handleGlobal)
	mux.HandleFunc("GET /v1/disasters", s.handleLocation)
	mux.HandleFunc("GET /v1/alerts", s.handleAlerts)
	mux.HandleFunc("GET /v1/reports/recent", s.handleRecent)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleGlobal(w http.ResponseWriter, r *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.api.Aggregator.AggregateGlobal(r.Context()))
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" {
		writeError(w, http.StatusBadRequest, "location is required")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.api.Aggregator.AggregateForLocation(r.Context(), location))
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := parseCoord(q.Get("lat"), 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lat: "+err.Error())
		return
	}
	lon, err := parseCoord(q.Get("lon"), 180)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lon: "+err.Error())
		return
	}

	res := s.api.Alerts.CheckFrom(r.Context(), alert.StaticLocation{Lat: lat, Lon: lon})
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.api.Archive == nil {
		writeError(w, http.StatusNotFound, "report archive is disabled")
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}

	reports, err := s.api.Archive.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("list archived reports", "error", err)
		writeError(w, http.StatusInternalServerError, "archive unavailable")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func parseCoord(raw string, limit float64) (float64, error) {
	if raw == "" {
		return 0, errors.New("missing")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) {
		return 0, errors.New("not a number")
	}
	if v < -limit || v > limit {
		return 0, errors.New("out of range")
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
