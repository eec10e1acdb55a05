package handlers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/services"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/brandpulse-go/internal/presentation/http/middleware"
)

// CacheHandlers exposes snapshot cache state and on-demand warming.
type CacheHandlers struct {
	cache          *manager.Manager
	deltaService   *services.MetricsDeltaService
	warmingService *services.SnapshotWarmingService
	warmingLock    *caching.WarmingLock
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewCacheHandlers creates cache handlers with injected dependencies
func NewCacheHandlers(cache *manager.Manager, deltaService *services.MetricsDeltaService, warmingService *services.SnapshotWarmingService, warmingLock *caching.WarmingLock, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *CacheHandlers {
	return &CacheHandlers{
		cache:          cache,
		deltaService:   deltaService,
		warmingService: warmingService,
		warmingLock:    warmingLock,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// GetCacheStatus handles GET /api/v1/cache/status. It reports the memory
// tier counters of the tenant and which dates of the requested window it
// holds.
func (h *CacheHandlers) GetCacheStatus(c *gin.Context) {
	tenantID, exists := middleware.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	req, err := h.deltaService.ParseRequest(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	stats, initialized := h.cache.Stats(tenantID)
	c.JSON(http.StatusOK, gin.H{
		"tenant":      tenantID,
		"initialized": initialized,
		"stats":       stats,
		"range":       h.cache.GetRangeCacheStatus(tenantID, req.Window),
		"warming":     slices.Contains(h.warmingLock.Held(), tenantID),
	})
}

// WarmCache handles POST /api/v1/cache/warm, writing snapshots for the
// requested window (today by default).
func (h *CacheHandlers) WarmCache(c *gin.Context) {
	tenantID, exists := middleware.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return
	}

	req, err := h.deltaService.ParseRequest(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return
	}

	marker := h.perfTracker.StartOperation("warm_cache_request", tenantID.String())
	defer marker.Complete()

	result, err := h.warmingService.WarmTenant(c.Request.Context(), tenantID, req.Window, nil)
	if err != nil {
		marker.SetError(err)
		h.logger.WithContext(logging.ChannelWarming, c.Request.Context()).Warn("On-demand warming failed",
			"tenantId", tenantID, "window", req.Window.String(), "error", err.Error())
		respondError(c, err)
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, result)
}
