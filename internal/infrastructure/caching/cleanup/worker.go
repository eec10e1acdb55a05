// Package cleanup provides background worker
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/monitoring"
)

// Worker purges expired memory tier entries on an interval.
type Worker struct {
	cache    interfaces.SnapshotCache
	config   *Config
	logger   *logging.ChanneledLogger
	reporter *Reporter
	sweeper  ConnectionSweeper
}

// ConnectionSweeper drops tenant database pools that stopped answering.
type ConnectionSweeper interface {
	CleanupStaleConnections(ctx context.Context) int
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.SnapshotCache, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		cache:    cache,
		config:   config,
		logger:   logger,
		reporter: NewReporter(cache),
	}
}

// WithConnectionSweeper makes each cleanup pass also sweep dead tenant
// connection pools.
func (w *Worker) WithConnectionSweeper(sweeper ConnectionSweeper) *Worker {
	w.sweeper = sweeper
	return w
}

// Start runs the cleanup loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.PerformCleanup(ctx)
		}
	}
}

// PerformCleanup purges every known tenant once and returns the number of
// entries removed.
func (w *Worker) PerformCleanup(ctx context.Context) int {
	start := time.Now()
	tenants := w.cache.Tenants()

	if w.config.VerboseReporting {
		w.reporter.LogStage("PERIODIC CACHE CLEANUP")
		for _, tenant := range tenants {
			w.reporter.WriteTenantReport(tenant)
		}
	}

	var totalCleaned int
	for _, tenant := range tenants {
		select {
		case <-ctx.Done():
			return totalCleaned
		default:
		}
		cleaned := w.cache.PurgeExpired(tenant)
		if cleaned > 0 {
			w.logger.Cache().Debug("Purged expired snapshots", "tenantId", tenant, "count", cleaned)
		}
		totalCleaned += cleaned
	}
	monitoring.SnapshotEvictionsTotal.Add(float64(totalCleaned))

	if w.sweeper != nil {
		if dropped := w.sweeper.CleanupStaleConnections(ctx); dropped > 0 {
			w.logger.Database().Info("Dropped stale tenant connection pools", "count", dropped)
		}
	}

	duration := time.Since(start)
	if totalCleaned > 0 {
		w.logger.Cache().Info("Cache cleanup finished",
			"cleaned", totalCleaned, "tenants", len(tenants), "duration", duration)
	} else if w.config.VerboseReporting {
		w.reporter.LogInfo("Cache cleanup completed - no expired items found (%v)", duration)
	}
	return totalCleaned
}
