// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/services"
	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/shared"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/tenant"
	"github.com/AtRiskMedia/brandpulse-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	Config      *config.Config
	Logger      *logging.ChanneledLogger
	PerfTracker *performance.Tracker

	// Metrics services (stateless singletons)
	DeltaService   *services.MetricsDeltaService
	WarmingService *services.SnapshotWarmingService

	// Infrastructure Dependencies
	SharedCache   *shared.RedisCache
	CacheManager  *manager.Manager
	WarmingLock   *caching.WarmingLock
	TenantManager *tenant.Manager
	Detector      *tenant.Detector
}

// NewContainer creates and wires all singleton services
func NewContainer(cfg *config.Config, logger *logging.ChanneledLogger, sharedCache *shared.RedisCache, cacheManager *manager.Manager, tenantManager *tenant.Manager) (*Container, error) {
	loc, err := metrics.ParseUTCOffset(cfg.BusinessUTCOffset)
	if err != nil {
		return nil, fmt.Errorf("invalid BUSINESS_UTC_OFFSET: %w", err)
	}

	perfTracker := performance.NewTracker(logger, cfg.SlowQueryThreshold)
	warmingLock := caching.NewWarmingLock()

	return &Container{
		Config:      cfg,
		Logger:      logger,
		PerfTracker: perfTracker,

		DeltaService:   services.NewMetricsDeltaService(cacheManager, tenantManager, metrics.NewBusinessClock(loc), logger, perfTracker),
		WarmingService: services.NewSnapshotWarmingService(tenantManager, cacheManager, warmingLock, cfg.SnapshotSharedTTL, logger, perfTracker),

		SharedCache:   sharedCache,
		CacheManager:  cacheManager,
		WarmingLock:   warmingLock,
		TenantManager: tenantManager,
		Detector:      tenant.NewDetector(tenantManager.Registry(), cfg.DefaultTenant),
	}, nil
}
