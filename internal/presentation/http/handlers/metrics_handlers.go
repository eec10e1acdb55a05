package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/services"
	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/brandpulse-go/internal/presentation/http/middleware"
)

// MetricsHandlers serves delta and trend requests
type MetricsHandlers struct {
	deltaService *services.MetricsDeltaService
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewMetricsHandlers creates metrics handlers with injected dependencies
func NewMetricsHandlers(deltaService *services.MetricsDeltaService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MetricsHandlers {
	return &MetricsHandlers{
		deltaService: deltaService,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// GetDelta handles GET /api/v1/metrics/delta for a single metric.
func (h *MetricsHandlers) GetDelta(c *gin.Context) {
	start := time.Now()
	tenantID, req, ok := h.parse(c, true)
	if !ok {
		return
	}

	marker := h.perfTracker.StartOperation("get_delta_request", tenantID.String())
	defer marker.Complete()

	result, err := h.deltaService.ComputeDelta(c.Request.Context(), tenantID, req.Metrics[0], req.Window, req.Options)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	marker.SetSuccess(true)
	h.logger.WithContext(logging.ChannelMetrics, c.Request.Context()).Debug("Delta request completed",
		"tenantId", tenantID, "metric", result.Metric, "range", result.Range.String(), "duration", time.Since(start))
	c.JSON(http.StatusOK, result)
}

// GetDeltas handles GET /api/v1/metrics/deltas. Without a metric parameter
// every metric is returned.
func (h *MetricsHandlers) GetDeltas(c *gin.Context) {
	start := time.Now()
	tenantID, req, ok := h.parse(c, false)
	if !ok {
		return
	}

	marker := h.perfTracker.StartOperation("get_deltas_request", tenantID.String())
	defer marker.Complete()

	results, err := h.deltaService.ComputeDeltas(c.Request.Context(), tenantID, req.Metrics, req.Window, req.Options)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	marker.SetSuccess(true)
	h.logger.WithContext(logging.ChannelMetrics, c.Request.Context()).Debug("Deltas request completed",
		"tenantId", tenantID, "count", len(results), "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"tenant": tenantID,
		"range":  req.Window,
		"deltas": results,
		"count":  len(results),
	})
}

// GetTrend handles GET /api/v1/metrics/trend for a single metric.
func (h *MetricsHandlers) GetTrend(c *gin.Context) {
	tenantID, req, ok := h.parse(c, true)
	if !ok {
		return
	}

	marker := h.perfTracker.StartOperation("get_trend_request", tenantID.String())
	defer marker.Complete()

	trend, err := h.deltaService.ComputeTrend(c.Request.Context(), tenantID, req.Metrics[0], req.Window, req.Options)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, trend)
}

// parse resolves the tenant and validates the query. It writes the error
// response itself and reports false when the request cannot proceed.
func (h *MetricsHandlers) parse(c *gin.Context, single bool) (metrics.TenantKey, *services.DeltaRequest, bool) {
	tenantID, exists := middleware.GetTenantID(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "tenant context not found"})
		return "", nil, false
	}

	req, err := h.deltaService.ParseRequest(c.Request.URL.Query())
	if err != nil {
		respondError(c, err)
		return "", nil, false
	}
	if single && len(req.Metrics) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("exactly one metric is required, got %d", len(req.Metrics))})
		return "", nil, false
	}
	return tenantID, req, true
}
