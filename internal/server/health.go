package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ladleworks/ladle/internal/logging"
)

// probeTimeout is the maximum time allowed for each individual dependency
// probe during a health check. Kept short so /api/health responds quickly
// even when a dependency is slow rather than unreachable.
const probeTimeout = 5 * time.Second

// healthCheck holds the per-dependency result of a health probe.
type healthCheck struct {
	// Name is the dependency label (e.g. "model", "qdrant").
	Name string `json:"name"`
	// OK is true when the dependency responded successfully.
	OK bool `json:"ok"`
	// Error contains the failure reason when OK is false. Empty on success.
	Error string `json:"error,omitempty"`
}

// healthResponse is the JSON body returned by GET /api/health.
type healthResponse struct {
	// Healthy is true only when every dependency probe succeeded.
	Healthy bool `json:"healthy"`
	// Checks contains the per-dependency probe results. Empty when the
	// server was configured without pingers (liveness-only mode).
	Checks []healthCheck `json:"checks,omitempty"`
}

// handleHealth handles GET /api/health. It probes each registered Pinger
// with a short timeout and returns 200 when all dependencies are reachable,
// or 503 when any probe fails. With no pingers configured it reports plain
// process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := healthResponse{Healthy: true}

	for _, p := range s.pingers {
		probeCtx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Ping(probeCtx)
		cancel()

		check := healthCheck{Name: p.Name(), OK: err == nil}
		if err != nil {
			check.Error = err.Error()
			resp.Healthy = false
			log.Warn("health probe failed",
				slog.String("dependency", p.Name()),
				slog.Any("error", err),
			)
		}
		resp.Checks = append(resp.Checks, check)
	}

	status := http.StatusOK
	if !resp.Healthy {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("health encode error", slog.Any("error", err))
	}
}
