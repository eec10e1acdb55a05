// Package tenant provides tenant detection and validation.
package tenant

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

// TenantHeader carries the brand key on API requests.
const TenantHeader = "X-Tenant-ID"

// Detector handles tenant detection from HTTP requests
type Detector struct {
	registry      *TenantRegistry
	defaultTenant metrics.TenantKey
}

// NewDetector creates a new tenant detector. defaultTenant, when set, is
// used for requests that name no tenant.
func NewDetector(registry *TenantRegistry, defaultTenant string) *Detector {
	return &Detector{
		registry:      registry,
		defaultTenant: metrics.NormalizeTenant(defaultTenant),
	}
}

// DetectTenant extracts the tenant key from the X-Tenant-ID header, falling
// back to the brand or tenantId query parameters.
func (d *Detector) DetectTenant(c *gin.Context) (metrics.TenantKey, error) {
	raw := c.GetHeader(TenantHeader)
	if raw == "" {
		raw = c.Query("brand")
	}
	if raw == "" {
		raw = c.Query("tenantId")
	}

	tenantID := metrics.NormalizeTenant(raw)
	if tenantID == "" {
		tenantID = d.defaultTenant
	}
	if tenantID == "" {
		return "", fmt.Errorf("%w: missing tenant ID", metrics.ErrUnknownTenant)
	}

	if _, exists := d.registry.Lookup(tenantID); !exists {
		return "", fmt.Errorf("%w: %s", metrics.ErrUnknownTenant, tenantID)
	}
	return tenantID, nil
}

// GetTenantStatus returns the current status of a tenant
func (d *Detector) GetTenantStatus(tenantID metrics.TenantKey) string {
	if info, exists := d.registry.Lookup(tenantID); exists {
		return info.Status
	}
	return "unknown"
}
