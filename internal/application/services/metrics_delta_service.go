// Package services provides the application services of the delta engine.
package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/monitoring"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/performance"
)

// MetricsDeltaService compares KPIs of a window against the preceding
// window of equal length. Single-day requests without options are answered
// from cached daily snapshots; everything else is aggregated from the
// tenant database.
type MetricsDeltaService struct {
	cache       interfaces.SnapshotReader
	resolver    metrics.RepositoryResolver
	clock       metrics.BusinessClock
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewMetricsDeltaService wires the service to its collaborators.
func NewMetricsDeltaService(cache interfaces.SnapshotReader, resolver metrics.RepositoryResolver, clock metrics.BusinessClock, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *MetricsDeltaService {
	return &MetricsDeltaService{
		cache:       cache,
		resolver:    resolver,
		clock:       clock,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Clock exposes the business clock the service resolves "today" with.
func (s *MetricsDeltaService) Clock() metrics.BusinessClock {
	return s.clock
}

// ComputeDelta compares metric over window against the previous window.
func (s *MetricsDeltaService) ComputeDelta(ctx context.Context, tenant metrics.TenantKey, metric metrics.Metric, window metrics.TimeWindow, opts metrics.Options) (*metrics.DeltaResult, error) {
	marker := s.perfTracker.StartOperation("compute_delta", tenant.String())
	defer marker.Complete()
	marker.AddMetadata("metric", string(metric))
	marker.AddMetadata("window", window.String())

	metric, window, opts, err := validate(metric, window, opts)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	if metrics.CacheEligible(window, opts) {
		if result, ok := s.fromCache(ctx, tenant, metric, window); ok {
			marker.AddCacheHit()
			monitoring.DeltaComputationsTotal.WithLabelValues("cache").Inc()
			return result, nil
		}
	}

	current, previous, err := s.aggregatePair(ctx, tenant, window, opts)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	result, err := deltaFromSnapshots(metric, window, current, previous)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	monitoring.DeltaComputationsTotal.WithLabelValues("aggregation").Inc()
	return result, nil
}

// ComputeDeltas evaluates several metrics concurrently. An empty list means
// every metric. The first failure fails the call; results keep the
// requested order.
func (s *MetricsDeltaService) ComputeDeltas(ctx context.Context, tenant metrics.TenantKey, list []metrics.Metric, window metrics.TimeWindow, opts metrics.Options) ([]metrics.DeltaResult, error) {
	if len(list) == 0 {
		list = metrics.AllMetrics
	}

	results := make([]metrics.DeltaResult, len(list))
	g, gctx := errgroup.WithContext(ctx)
	for i, metric := range list {
		g.Go(func() error {
			result, err := s.ComputeDelta(gctx, tenant, metric, window, opts)
			if err != nil {
				return err
			}
			results[i] = *result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WithContext(logging.ChannelMetrics, ctx).Error("Delta fan-out failed",
			"tenantId", tenant, "metrics", len(list), "error", err.Error())
		return nil, err
	}
	return results, nil
}

// fromCache answers a single-day request from daily snapshots. It reports
// false when either date is missing or a snapshot fails the consistency
// guard.
func (s *MetricsDeltaService) fromCache(ctx context.Context, tenant metrics.TenantKey, metric metrics.Metric, window metrics.TimeWindow) (*metrics.DeltaResult, bool) {
	prevDate := metrics.PreviousWindow(window).Start
	snaps := s.cache.GetMany(ctx, tenant, []metrics.CalendarDate{window.Start, prevDate})

	current, previous := snaps[window.Start], snaps[prevDate]
	if current == nil || previous == nil {
		return nil, false
	}
	for date, snap := range map[metrics.CalendarDate]*metrics.Snapshot{window.Start: current, prevDate: previous} {
		if !snap.Consistent() {
			monitoring.InconsistentSnapshotsTotal.Inc()
			s.logger.WithContext(logging.ChannelCache, ctx).Warn("Bypassing cached snapshot",
				"tenantId", tenant,
				"date", date,
				"totalOrders", snap.TotalOrders,
				"conversionRate", snap.ConversionRate,
				"error", metrics.ErrInconsistentCacheValue.Error())
			return nil, false
		}
	}

	result, err := deltaFromSnapshots(metric, window, *current, *previous)
	if err != nil {
		return nil, false
	}
	return result, true
}

// aggregatePair queries the current and previous periods concurrently and
// derives their snapshots.
func (s *MetricsDeltaService) aggregatePair(ctx context.Context, tenant metrics.TenantKey, window metrics.TimeWindow, opts metrics.Options) (metrics.Snapshot, metrics.Snapshot, error) {
	repo, err := s.resolver.AggregateRepository(ctx, tenant)
	if err != nil {
		return metrics.Snapshot{}, metrics.Snapshot{}, err
	}

	current, previous := s.periodQueries(window, opts)

	var curTotals, prevTotals metrics.Totals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		curTotals, err = repo.PeriodTotals(gctx, current)
		return err
	})
	g.Go(func() error {
		var err error
		prevTotals, err = repo.PeriodTotals(gctx, previous)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.WithContext(logging.ChannelMetrics, ctx).Error("Aggregation failed",
			"tenantId", tenant, "window", window.String(), "error", err.Error())
		return metrics.Snapshot{}, metrics.Snapshot{}, err
	}

	if opts.CompareMode == metrics.ComparePrevRangeAvg {
		perDay := 1 / float64(window.Days())
		curTotals, prevTotals = curTotals.Scale(perDay), prevTotals.Scale(perDay)
	}
	return metrics.DeriveSnapshot(curTotals), metrics.DeriveSnapshot(prevTotals), nil
}

// periodQueries builds the current and previous queries of window,
// placing hour cutoffs when the align mode asks for them.
func (s *MetricsDeltaService) periodQueries(window metrics.TimeWindow, opts metrics.Options) (metrics.PeriodQuery, metrics.PeriodQuery) {
	prevWindow := metrics.PreviousWindow(window)
	current := metrics.PeriodQuery{Window: window, Filters: opts.Filters}
	previous := metrics.PeriodQuery{Window: prevWindow, Filters: opts.Filters}

	if opts.AlignMode == metrics.AlignHour {
		alignment := metrics.ResolveAlignment(window, prevWindow, s.clock.Now(), s.clock.Location)
		current.Bound = alignment.Current
		previous.Bound = alignment.Previous
	}
	return current, previous
}

func deltaFromSnapshots(metric metrics.Metric, window metrics.TimeWindow, current, previous metrics.Snapshot) (*metrics.DeltaResult, error) {
	cur, err := current.Value(metric)
	if err != nil {
		return nil, err
	}
	prev, err := previous.Value(metric)
	if err != nil {
		return nil, err
	}
	result := metrics.ComputeDelta(metric, window, cur, prev)
	return &result, nil
}

func validate(metric metrics.Metric, window metrics.TimeWindow, opts metrics.Options) (metrics.Metric, metrics.TimeWindow, metrics.Options, error) {
	metric, err := metrics.ParseMetric(string(metric))
	if err != nil {
		return "", metrics.TimeWindow{}, opts, err
	}

	if window.Start == "" {
		window.Start = window.End
	}
	if window.End == "" {
		window.End = window.Start
	}
	if _, err := metrics.ParseDate(string(window.Start)); err != nil {
		return "", metrics.TimeWindow{}, opts, err
	}
	if _, err := metrics.ParseDate(string(window.End)); err != nil {
		return "", metrics.TimeWindow{}, opts, err
	}
	window, err = metrics.NewTimeWindow(window.Start, window.End)
	if err != nil {
		return "", metrics.TimeWindow{}, opts, err
	}

	if opts.CompareMode, err = metrics.ParseCompareMode(string(opts.CompareMode)); err != nil {
		return "", metrics.TimeWindow{}, opts, err
	}
	if opts.AlignMode, err = metrics.ParseAlignMode(string(opts.AlignMode)); err != nil {
		return "", metrics.TimeWindow{}, opts, err
	}
	opts.Filters = opts.Filters.Normalized()
	if opts.Filters.PaymentMode, err = metrics.ParsePaymentMode(string(opts.Filters.PaymentMode)); err != nil {
		return "", metrics.TimeWindow{}, opts, err
	}
	return metric, window, opts, nil
}

// IsClientError reports whether err stems from invalid input rather than
// an unavailable dependency.
func IsClientError(err error) bool {
	return errors.Is(err, metrics.ErrInvalidWindow) ||
		errors.Is(err, metrics.ErrUnknownMetric) ||
		errors.Is(err, metrics.ErrInvalidOption)
}

func wrapTenant(tenant metrics.TenantKey, op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s for %s: %w", op, tenant, err)
}
