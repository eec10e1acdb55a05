package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
)

const healthPingTimeout = 2 * time.Second

// Pinger checks a dependency's reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TenantPools reports tenant and connection pool state.
type TenantPools interface {
	ActiveTenants() []metrics.TenantKey
	PoolInfo(ctx context.Context) map[string]map[string]any
}

// SystemHandlers serves health and log level administration.
type SystemHandlers struct {
	sharedCache Pinger
	tenants     TenantPools
	logger      *logging.ChanneledLogger
}

// NewSystemHandlers creates system handlers with injected dependencies
func NewSystemHandlers(sharedCache Pinger, tenants TenantPools, logger *logging.ChanneledLogger) *SystemHandlers {
	return &SystemHandlers{
		sharedCache: sharedCache,
		tenants:     tenants,
		logger:      logger,
	}
}

// GetHealth handles GET /health. A missing shared cache degrades the
// service but does not fail it.
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
	defer cancel()

	status, cacheStatus := "ok", "ok"
	if err := h.sharedCache.Ping(ctx); err != nil {
		status, cacheStatus = "degraded", err.Error()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":        status,
		"sharedCache":   cacheStatus,
		"activeTenants": h.tenants.ActiveTenants(),
		"pools":         h.tenants.PoolInfo(ctx),
	})
}

// GetLogLevels handles GET /api/v1/admin/logs/levels.
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// SetLogLevel handles POST /api/v1/admin/logs/levels - sets the log level for a specific channel.
func (h *SystemHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}
