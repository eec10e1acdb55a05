package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/monitoring"
)

// Trend granularities.
const (
	GranularityHour = "hour"
	GranularityDay  = "day"
)

// TrendPoint pairs a bucket of the current window with its positional
// counterpart in the previous window.
type TrendPoint struct {
	Label        string               `json:"label"`
	Date         metrics.CalendarDate `json:"date"`
	PreviousDate metrics.CalendarDate `json:"previousDate"`
	Hour         *int                 `json:"hour,omitempty"`
	Current      float64              `json:"current"`
	Previous     float64              `json:"previous"`
}

// Trend is a bucketed current-vs-previous series of one metric.
type Trend struct {
	Metric        metrics.Metric     `json:"metric"`
	Range         metrics.TimeWindow `json:"range"`
	PreviousRange metrics.TimeWindow `json:"previousRange"`
	Granularity   string             `json:"granularity"`
	Points        []TrendPoint       `json:"points"`
}

// ComputeTrend returns metric over window bucketed by hour for unfiltered
// single-day windows and by day otherwise.
func (s *MetricsDeltaService) ComputeTrend(ctx context.Context, tenant metrics.TenantKey, metric metrics.Metric, window metrics.TimeWindow, opts metrics.Options) (*Trend, error) {
	marker := s.perfTracker.StartOperation("compute_trend", tenant.String())
	defer marker.Complete()

	metric, window, opts, err := validate(metric, window, opts)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	repo, err := s.resolver.AggregateRepository(ctx, tenant)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	var trend *Trend
	if window.SingleDay() && opts.Filters.Empty() {
		trend, err = s.hourlyTrend(ctx, repo, metric, window)
	} else {
		trend, err = s.dailyTrend(ctx, repo, metric, window, opts)
	}
	if err != nil {
		marker.SetError(err)
		s.logger.Metrics().Error("Trend computation failed", "tenantId", tenant, "metric", metric, "error", err.Error())
		return nil, err
	}
	monitoring.DeltaComputationsTotal.WithLabelValues("trend").Inc()
	marker.AddMetadata("points", len(trend.Points))
	return trend, nil
}

// hourlyTrend compares hours 0..H of the day against the same hours of the
// day before, where H is the current hour for today and 23 otherwise.
func (s *MetricsDeltaService) hourlyTrend(ctx context.Context, repo metrics.AggregateRepository, metric metrics.Metric, window metrics.TimeWindow) (*Trend, error) {
	date := window.Start
	prevWindow := metrics.PreviousWindow(window)
	cutoff := metrics.CutoffFor(date, s.clock.Now(), s.clock.Location)

	var current, previous []metrics.HourTotals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = repo.HourlyTotals(gctx, date, cutoff.CutoffHour)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = repo.HourlyTotals(gctx, prevWindow.Start, cutoff.CutoffHour)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(current))
	for i, bucket := range current {
		cur, err := metrics.DeriveSnapshot(bucket.Totals).Value(metric)
		if err != nil {
			return nil, err
		}
		var prev float64
		if i < len(previous) {
			if prev, err = metrics.DeriveSnapshot(previous[i].Totals).Value(metric); err != nil {
				return nil, err
			}
		}
		hour := bucket.Hour
		points = append(points, TrendPoint{
			Label:        fmt.Sprintf("%02d:00", hour),
			Date:         date,
			PreviousDate: prevWindow.Start,
			Hour:         &hour,
			Current:      cur,
			Previous:     prev,
		})
	}

	return &Trend{
		Metric:        metric,
		Range:         window,
		PreviousRange: prevWindow,
		Granularity:   GranularityHour,
		Points:        points,
	}, nil
}

// dailyTrend compares each date of window with the date at the same
// position in the previous window.
func (s *MetricsDeltaService) dailyTrend(ctx context.Context, repo metrics.AggregateRepository, metric metrics.Metric, window metrics.TimeWindow, opts metrics.Options) (*Trend, error) {
	currentQuery, previousQuery := s.periodQueries(window, opts)

	var current, previous []metrics.DayTotals
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = repo.DailyTotals(gctx, currentQuery)
		return err
	})
	g.Go(func() error {
		var err error
		previous, err = repo.DailyTotals(gctx, previousQuery)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(current))
	for i, day := range current {
		cur, err := metrics.DeriveSnapshot(day.Totals).Value(metric)
		if err != nil {
			return nil, err
		}
		point := TrendPoint{Label: day.Date.String(), Date: day.Date, Current: cur}
		if i < len(previous) {
			point.PreviousDate = previous[i].Date
			if point.Previous, err = metrics.DeriveSnapshot(previous[i].Totals).Value(metric); err != nil {
				return nil, err
			}
		}
		points = append(points, point)
	}

	return &Trend{
		Metric:        metric,
		Range:         window,
		PreviousRange: previousQuery.Window,
		Granularity:   GranularityDay,
		Points:        points,
	}, nil
}
