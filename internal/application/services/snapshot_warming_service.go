package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/monitoring"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/performance"
)

// ErrWarmingInProgress is returned when a tenant is already being warmed.
var ErrWarmingInProgress = errors.New("snapshot warming already in progress")

// WarmProgress is called after each date is written.
type WarmProgress func(done, total int)

// WarmResult summarises one warming run.
type WarmResult struct {
	Tenant   metrics.TenantKey  `json:"tenant"`
	Window   metrics.TimeWindow `json:"window"`
	Written  int                `json:"written"`
	Duration time.Duration      `json:"duration"`
}

// SnapshotWarmingService writes daily snapshots to the shared cache from
// the tenant's daily summary, producing the values the cached delta path
// reads.
type SnapshotWarmingService struct {
	resolver    metrics.RepositoryResolver
	cache       interfaces.SnapshotWriter
	lock        *caching.WarmingLock
	ttl         time.Duration
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSnapshotWarmingService creates the warmer. ttl is the shared cache
// expiry of written snapshots.
func NewSnapshotWarmingService(resolver metrics.RepositoryResolver, cache interfaces.SnapshotWriter, lock *caching.WarmingLock, ttl time.Duration, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SnapshotWarmingService {
	return &SnapshotWarmingService{
		resolver:    resolver,
		cache:       cache,
		lock:        lock,
		ttl:         ttl,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// WarmTenant writes one snapshot per date of window. progress may be nil.
func (s *SnapshotWarmingService) WarmTenant(ctx context.Context, tenant metrics.TenantKey, window metrics.TimeWindow, progress WarmProgress) (*WarmResult, error) {
	if !s.lock.TryLock(tenant) {
		return nil, fmt.Errorf("%w: %s", ErrWarmingInProgress, tenant)
	}
	defer s.lock.Unlock(tenant)

	start := time.Now()
	marker := s.perfTracker.StartOperation("warm_tenant", tenant.String())
	defer marker.Complete()
	log := s.logger.WithTenantAndOperation(logging.ChannelWarming, tenant.String(), "warm_tenant")

	repo, err := s.resolver.AggregateRepository(ctx, tenant)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	days, err := repo.DailyTotals(ctx, metrics.PeriodQuery{Window: window})
	if err != nil {
		marker.SetError(err)
		return nil, wrapTenant(tenant, "read daily totals", err)
	}

	result := &WarmResult{Tenant: tenant, Window: window}
	for i, day := range days {
		if err := ctx.Err(); err != nil {
			marker.SetError(err)
			return result, err
		}
		snap := metrics.DeriveSnapshot(day.Totals)
		if err := s.cache.Put(ctx, tenant, day.Date, snap, s.ttl); err != nil {
			marker.SetError(err)
			log.Error("Snapshot write failed", "date", day.Date, "error", err.Error())
			return result, wrapTenant(tenant, "write snapshot "+day.Date.String(), err)
		}
		result.Written++
		monitoring.SnapshotsWarmedTotal.Inc()
		if progress != nil {
			progress(i+1, len(days))
		}
	}

	result.Duration = time.Since(start)
	marker.AddMetadata("written", result.Written)
	log.Info("Snapshots warmed", "window", window.String(), "written", result.Written, "duration", result.Duration)
	return result, nil
}

// WarmAllTenants warms the trailing days ending today for every tenant.
// Failures are logged per tenant and reported together.
func (s *SnapshotWarmingService) WarmAllTenants(ctx context.Context, tenants []metrics.TenantKey, today metrics.CalendarDate, days int) error {
	if days <= 0 {
		return nil
	}
	window := metrics.TimeWindow{Start: metrics.ShiftDays(today, -(days - 1)), End: today}

	var failed []metrics.TenantKey
	for _, tenant := range tenants {
		if _, err := s.WarmTenant(ctx, tenant, window, nil); err != nil {
			s.logger.Warming().Error("Tenant warming failed", "tenantId", tenant, "error", err.Error())
			failed = append(failed, tenant)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("warming failed for %d of %d tenants: %v", len(failed), len(tenants), failed)
	}
	return nil
}
