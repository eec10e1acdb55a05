// Package tenant provides tenant context management for multi-tenant support.
package tenant

import (
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	persistence "github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/persistence/metrics"
)

// Context holds the resolved resources of one tenant.
type Context struct {
	TenantID      metrics.TenantKey
	Info          TenantInfo
	Database      *Database
	Status        string
	Logger        *logging.ChanneledLogger
	SlowThreshold time.Duration
}

// Close cleans up the tenant context
func (ctx *Context) Close() error {
	if ctx.Database != nil {
		return ctx.Database.Close()
	}
	return nil
}

// IsActive returns true if the tenant is active
func (ctx *Context) IsActive() bool {
	return ctx.Status == StatusActive
}

// GetDatabaseInfo returns database connection information for logging
func (ctx *Context) GetDatabaseInfo() string {
	if ctx.Database != nil {
		return ctx.Database.GetConnectionInfo()
	}
	return "no database connection"
}

// AggregateRepo returns the aggregation repository of this tenant.
func (ctx *Context) AggregateRepo() metrics.AggregateRepository {
	return persistence.NewSQLAggregateRepository(ctx.Database.Conn, ctx.TenantID, ctx.Logger, ctx.SlowThreshold)
}
