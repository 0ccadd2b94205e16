// Package server implements the local HTTP API over the recipe assistant:
// POST /api/ask for answers, GET /api/health for dependency health, and
// GET /metrics for Prometheus scraping.
// The server is started by the `ladle serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ladleworks/ladle/internal/logging"
	"github.com/ladleworks/ladle/internal/service"
)

// New constructs a Server from the provided RAG pipeline and config.
// reg receives the server's Prometheus metrics; tests pass a fresh registry.
func New(p pipeline, cfg *Config, reg *prometheus.Registry) (*Server, error) {
	if p == nil {
		return nil, fmt.Errorf("server: pipeline must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full generate call.
		cfg.WriteTimeout = 5 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		pipeline: p,
		cfg:      cfg,
		log:      log,
		metrics:  newServerMetrics(reg),
		pingers:  cfg.Pingers,
	}

	if cfg.APIKey == "" {
		log.Warn("server: LADLE_API_KEY not set, API authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
	s.stopRL = stopRL

	protect := func(name string, h http.Handler) http.Handler {
		return requestLogger(log, s.metrics, name, rl.middleware(authMiddleware(cfg.APIKey, h)))
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/ask", protect("ask", http.HandlerFunc(s.handleAsk)))
	mux.Handle("GET /api/health", requestLogger(log, s.metrics, "health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server: listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleAsk handles POST /api/ask requests: it runs the full pipeline and
// returns the answer together with the retrieved recipe references.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		http.Error(w, "question is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	resp, err := s.ask(r.Context(), req.Question)
	outcome := "ok"
	switch {
	case errors.Is(err, service.ErrNoRecipes):
		outcome = "no_results"
	case err != nil:
		outcome = "error"
	}
	s.metrics.askRequestsTotal.WithLabelValues(outcome).Inc()
	s.metrics.askDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, service.ErrNoRecipes):
		http.Error(w, "no relevant recipes found", http.StatusNotFound)
		return
	case err != nil:
		logging.FromContext(r.Context()).Error("ask failed", slog.Any("error", err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.FromContext(r.Context()).Error("ask encode error", slog.Any("error", err))
	}
}

// ask runs the pipeline for one question and assembles the API response.
func (s *Server) ask(ctx context.Context, question string) (*askResponse, error) {
	extraction, err := s.pipeline.GenerateQueries(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := s.pipeline.RetrieveRecipes(ctx, extraction)
	if err != nil {
		return nil, err
	}
	s.metrics.askRecipesRetrieved.Observe(float64(len(hits)))
	if len(hits) == 0 {
		return nil, service.ErrNoRecipes
	}

	msgs, err := s.pipeline.PopulateMessages(ctx, question, hits)
	if err != nil {
		return nil, err
	}

	answer, err := s.pipeline.Chat(ctx, msgs, io.Discard)
	if err != nil {
		return nil, err
	}

	resp := &askResponse{Answer: answer}
	for _, h := range hits {
		if h.Entry == nil {
			continue
		}
		resp.Recipes = append(resp.Recipes, recipeRef{
			Name:   h.Entry.Name,
			Slug:   h.Entry.Slug,
			Rating: h.Entry.Rating,
			Score:  h.Score,
		})
	}
	return resp, nil
}
