// Package api provides the HTTP REST API server for wealthsim.
//
// It exposes endpoints for single projections, scenario batches,
// sensitivity sweeps, the historical rate dataset, prometheus metrics,
// and WebSocket progress streaming.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/lufenny/wealthsim/internal/config"
	"github.com/lufenny/wealthsim/internal/dataset"
	"github.com/lufenny/wealthsim/internal/metrics"
	"github.com/lufenny/wealthsim/internal/simulate"
	"github.com/lufenny/wealthsim/pkg/models"
	"github.com/lufenny/wealthsim/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	base     models.AssumptionSet
	rates    *dataset.Table
	derived  dataset.Derived
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	limiter  *rate.Limiter
	wsHub    *WSHub
	version  string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	table := dataset.Default()
	if cfg.Dataset.Path != "" {
		t, err := dataset.LoadFile(cfg.Dataset.Path)
		if err != nil {
			return nil, fmt.Errorf("load dataset: %w", err)
		}
		table = t
	}

	registry := prometheus.NewRegistry()

	srv := &Server{
		cfg:      cfg,
		base:     cfg.Assumptions.AssumptionSet(),
		rates:    table,
		derived:  dataset.Derive(table, cfg.Dataset.Spread),
		registry: registry,
		metrics:  metrics.Register(registry),
		wsHub:    NewWSHub(),
		version:  "dev",
	}
	if cfg.API.RatePerSecond > 0 {
		srv.limiter = rate.NewLimiter(rate.Limit(cfg.API.RatePerSecond), cfg.API.RateBurst)
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// SetVersion overrides the version string reported by /health.
func (s *Server) SetVersion(v string) {
	if v != "" {
		s.version = v
	}
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.Infof("API server listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.instrument)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check and metrics are never rate limited
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)

		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Engine operations
		r.Post("/project", s.handleProject)
		r.Post("/scenarios", s.handleScenarios)
		r.Post("/sweep", s.handleSweep)

		// Reference data
		r.Get("/defaults", s.handleDefaults)
		r.Get("/rates", s.handleRates)

		// WebSocket progress streaming
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// instrument records per-route request counts, latencies and a debug log
// line once the handler completes.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		elapsed := time.Since(start)
		s.metrics.RequestCounter.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		s.metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		logrus.WithFields(logrus.Fields{
			"method":   r.Method,
			"route":    route,
			"status":   ww.Status(),
			"duration": elapsed,
		}).Debug("request")
	})
}

// rateLimit applies the configured token-bucket limiter. A nil limiter
// means limiting is disabled.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ProjectRequest is the body for POST /api/v1/project. Omitting assumptions
// projects the server defaults; overrides are applied on top by parameter
// name in sorted order.
type ProjectRequest struct {
	Assumptions *models.AssumptionSet `json:"assumptions,omitempty"`
	Overrides   map[string]float64    `json:"overrides,omitempty"`
}

// ScenariosRequest is the body for POST /api/v1/scenarios. An empty
// scenario list runs the configured presets.
type ScenariosRequest struct {
	Scenarios []models.Scenario `json:"scenarios,omitempty"`
	Parallel  *bool             `json:"parallel,omitempty"`
}

// SweepAxisRequest describes one sweep axis: either an explicit value list
// or an evenly spaced min/max/steps range.
type SweepAxisRequest struct {
	Param  string    `json:"param"`
	Values []float64 `json:"values,omitempty"`
	Min    *float64  `json:"min,omitempty"`
	Max    *float64  `json:"max,omitempty"`
	Steps  int       `json:"steps,omitempty"`
}

// SweepRequest is the body for POST /api/v1/sweep.
type SweepRequest struct {
	Base        *models.AssumptionSet `json:"base,omitempty"`
	Overrides   map[string]float64    `json:"overrides,omitempty"`
	Axes        []SweepAxisRequest    `json:"axes"`
	KeepResults bool                  `json:"keep_results,omitempty"`
	Parallel    *bool                 `json:"parallel,omitempty"`
}

// toAxis converts the request form into a validated models.SweepAxis.
func (r SweepAxisRequest) toAxis() (models.SweepAxis, error) {
	hasRange := r.Min != nil || r.Max != nil || r.Steps != 0
	switch {
	case len(r.Values) > 0 && hasRange:
		return models.SweepAxis{}, fmt.Errorf("axis %q: give values or min/max/steps, not both", r.Param)
	case len(r.Values) > 0:
		return models.NewSweepAxis(r.Param, r.Values)
	case r.Min != nil && r.Max != nil:
		return models.SweepRange(r.Param, *r.Min, *r.Max, r.Steps)
	default:
		return models.SweepAxis{}, fmt.Errorf("axis %q: values or min/max/steps required", r.Param)
	}
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	first, last := s.rates.Years()
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    s.version,
			"time_myt":   utils.FormatDateTimeMYT(utils.NowMYT()),
			"data_years": fmt.Sprintf("%d-%d", first, last),
		},
	})
}

func (s *Server) handleProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.resolveAssumptions(req.Assumptions, req.Overrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	proj, err := simulate.Project(a)
	if err != nil {
		s.metrics.ProjectionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		writeError(w, statusForError(err), err.Error())
		return
	}
	tp, err := simulate.DetectTippingPoint(proj.Buy, proj.Rent)
	if err != nil {
		s.metrics.ProjectionsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.metrics.ProjectionSeconds.Observe(time.Since(start).Seconds())
	s.metrics.ProjectionsTotal.WithLabelValues("ok").Inc()
	if tp.Found {
		s.metrics.TippingPoints.WithLabelValues(string(tp.Leader)).Inc()
	}

	s.wsHub.Broadcast(WSMessage{
		Type: EventProjectionComplete,
		Data: map[string]interface{}{
			"final_wealth_diff": proj.FinalWealthDiff(),
			"final_leader":      proj.FinalLeader(),
			"tipping_point":     tp.String(),
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"projection":    proj,
			"tipping_point": tp,
		},
	})
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	var req ScenariosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scenarios := req.Scenarios
	if len(scenarios) == 0 {
		presets, err := s.cfg.Presets()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		scenarios = presets
	}

	cfg := s.runnerConfig(req.Parallel)
	cfg.Progress = func(done, total int, name string) {
		s.wsHub.Broadcast(WSMessage{
			Type: EventBatchProgress,
			Data: map[string]interface{}{"done": done, "total": total, "name": name},
		})
	}

	batch, err := simulate.NewRunner(cfg).Run(r.Context(), scenarios)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.BatchScenarios.Observe(float64(len(batch.Outcomes)))

	s.wsHub.Broadcast(WSMessage{
		Type: EventBatchComplete,
		Data: map[string]interface{}{
			"scenarios": len(batch.Outcomes),
			"failed":    len(batch.Failed()),
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: batch})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	base, err := s.resolveAssumptions(req.Base, req.Overrides)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	axes := make([]models.SweepAxis, 0, len(req.Axes))
	for _, ar := range req.Axes {
		ax, err := ar.toAxis()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		axes = append(axes, ax)
	}

	cfg := s.analyzerConfig(req.Parallel)
	cfg.KeepResults = req.KeepResults
	cfg.Progress = func(done, total int) {
		s.wsHub.Broadcast(WSMessage{
			Type: EventSweepProgress,
			Data: map[string]interface{}{"done": done, "total": total},
		})
	}

	// Sweep fails only on malformed requests (axes, base validation)
	grid, err := simulate.NewAnalyzer(cfg).Sweep(r.Context(), base, axes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.metrics.SweepCells.Observe(float64(len(grid.Cells)))

	s.wsHub.Broadcast(WSMessage{
		Type: EventSweepComplete,
		Data: map[string]interface{}{"cells": len(grid.Cells)},
	})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: grid})
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	presets, err := s.cfg.Presets()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"assumptions": s.base,
			"presets":     presets,
			"sweepable":   models.SweepableParams(),
		},
	})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"rows":    s.rates.Rows,
			"derived": s.derived,
		},
	})
}

// ============================================================
// Helpers
// ============================================================

// resolveAssumptions picks the request set or the server default, then
// applies the named overrides in sorted order. The two integer horizon
// parameters are accepted here even though they are not sweepable.
func (s *Server) resolveAssumptions(a *models.AssumptionSet, overrides map[string]float64) (models.AssumptionSet, error) {
	base := s.base
	if a != nil {
		base = *a
	}
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		switch name {
		case models.ParamHorizonYears:
			base.HorizonYears = int(overrides[name])
		case models.ParamMortgageTermYears:
			base.MortgageTermYears = int(overrides[name])
		default:
			var err error
			base, err = base.WithParam(name, overrides[name])
			if err != nil {
				return models.AssumptionSet{}, err
			}
		}
	}
	return base, nil
}

func (s *Server) runnerConfig(parallel *bool) simulate.RunnerConfig {
	cfg := simulate.RunnerConfig{
		Parallel:   s.cfg.Engine.Parallel,
		MaxWorkers: s.cfg.Engine.MaxWorkers,
	}
	if parallel != nil {
		cfg.Parallel = *parallel
	}
	return cfg
}

func (s *Server) analyzerConfig(parallel *bool) simulate.AnalyzerConfig {
	cfg := simulate.AnalyzerConfig{
		Parallel:   s.cfg.Engine.Parallel,
		MaxWorkers: s.cfg.Engine.MaxWorkers,
	}
	if parallel != nil {
		cfg.Parallel = *parallel
	}
	return cfg
}

// statusForError maps engine errors onto HTTP status codes: invalid input
// is the caller's fault, anything else is ours.
func statusForError(err error) int {
	var iae *models.InvalidAssumptionError
	if errors.As(err, &iae) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// outcomeLabel is the metrics label for a failed projection.
func outcomeLabel(err error) string {
	var iae *models.InvalidAssumptionError
	if errors.As(err, &iae) {
		return "invalid"
	}
	return "error"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
