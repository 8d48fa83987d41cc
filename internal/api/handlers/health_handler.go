package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the database is reachable.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping   Pinger
	logger *zap.Logger
}

func NewHealthHandler(ping Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, logger: logger}
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		respondFail(c, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	respond(c, http.StatusOK, gin.H{"status": "ok", "database": "connected"})
}
