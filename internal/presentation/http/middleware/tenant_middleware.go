// Package middleware provides HTTP middleware for the presentation layer.
package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/tenant"
)

const tenantKey = "tenantId"

// TenantMiddleware resolves the brand of a request against the tenant
// registry. The tenant database is not opened here; requests answered from
// the snapshot cache never touch it.
func TenantMiddleware(detector *tenant.Detector, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		marker := perfTracker.StartOperation("middleware_tenant_resolution", "unknown")
		defer marker.Complete()
		marker.AddMetadata("path", c.Request.URL.Path)

		tenantID, err := detector.DetectTenant(c)
		if err != nil {
			logger.Tenant().Warn("Tenant resolution failed", "path", c.Request.URL.Path, "error", err.Error())
			marker.SetError(err)
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		marker.TenantID = tenantID.String()
		marker.SetSuccess(true)
		logger.Tenant().Debug("Tenant resolved",
			"tenantId", tenantID,
			"status", detector.GetTenantStatus(tenantID),
			"duration", time.Since(start))

		c.Set(tenantKey, tenantID)
		c.Next()
	}
}

// GetTenantID retrieves the resolved tenant from gin context.
func GetTenantID(c *gin.Context) (metrics.TenantKey, bool) {
	value, exists := c.Get(tenantKey)
	if !exists {
		return "", false
	}
	tenantID, ok := value.(metrics.TenantKey)
	return tenantID, ok
}
