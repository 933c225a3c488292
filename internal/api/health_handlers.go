package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/eventosumss/api/internal/health"
	"github.com/eventosumss/api/internal/middleware"
)

// readinessTimeout bounds each dependency check during /ready.
const readinessTimeout = 2 * time.Second

// HealthHandlers serves the liveness and readiness probes.
type HealthHandlers struct {
	checkers map[string]health.Checker
	logger   *slog.Logger
}

// NewHealthHandlers creates probe handlers over the given named
// dependency checkers.
func NewHealthHandlers(checkers map[string]health.Checker, logger *slog.Logger) *HealthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandlers{checkers: checkers, logger: logger}
}

// Health handles GET /health: process liveness only.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r.Context(), http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready: verifies every registered dependency and
// reports per-dependency status. Any failure yields 503.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	statuses := make(map[string]string, len(h.checkers))
	healthy := true

	for name, checker := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		err := checker.HealthCheck(ctx)
		cancel()
		if err != nil {
			h.logger.Warn("readiness check failed", "dependency", name, "error", err)
			statuses[name] = "unavailable"
			healthy = false
			continue
		}
		statuses[name] = "ok"
	}

	overall := "ok"
	status := http.StatusOK
	if !healthy {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		middleware.UpdateResponseContext(w, ctx)
		overall = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, r.Context(), status, map[string]any{
		"status":       overall,
		"dependencies": statuses,
	})
}
