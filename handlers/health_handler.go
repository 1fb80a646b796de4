package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/userauth-api/repositories"
	"github.com/upb/userauth-api/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	store   repositories.HealthChecker
	timeout time.Duration
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. A nil store always reports ready.
func NewHealthHandler(store repositories.HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		timeout: 2 * time.Second,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness handles GET /readyz
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	response := HealthResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]string{"store": "healthy"},
	}
	status := http.StatusOK

	if h.store != nil {
		if err := h.store.HealthCheck(ctx); err != nil {
			h.logger.Warn("store health check failed", zap.Error(err))
			response.Status = "not_ready"
			response.Checks["store"] = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	if err := utils.WriteJSON(w, status, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
