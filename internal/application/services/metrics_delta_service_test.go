package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

func day(d metrics.CalendarDate) metrics.TimeWindow {
	return metrics.TimeWindow{Start: d, End: d}
}

func TestComputeDeltaFromCachedSnapshots(t *testing.T) {
	h := newHarness()
	h.shared.store(t, acme, "2025-06-01", metrics.Snapshot{
		TotalOrders: 120, TotalSales: 50000, TotalSessions: 4000, TotalATCSessions: 900,
		AverageOrderValue: 416.67, ConversionRate: 3.0,
	})
	h.shared.store(t, acme, "2025-05-31", metrics.Snapshot{
		TotalOrders: 100, TotalSales: 40000, TotalSessions: 4000, TotalATCSessions: 800,
		AverageOrderValue: 400, ConversionRate: 2.5,
	})

	result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders, day("2025-06-01"), metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, metrics.DeltaResult{
		Metric:    metrics.MetricTotalOrders,
		Range:     day("2025-06-01"),
		Current:   120,
		Previous:  100,
		Diff:      20,
		DiffPct:   20,
		Direction: metrics.DirectionUp,
	}, *result)
	assert.EqualValues(t, 0, h.resolver.calls.Load())
}

func TestComputeDeltaFallsBackToAggregation(t *testing.T) {
	h := newHarness()
	h.repo.daily["2024-03-14"] = metrics.Totals{Orders: 10, Sales: 3000, Sessions: 400, ATCSessions: 50}
	h.repo.daily["2024-03-15"] = metrics.Totals{Orders: 7, Sales: 2100, Sessions: 350, ATCSessions: 40}

	result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders, day("2024-03-15"), metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, result.Current)
	assert.Equal(t, 10.0, result.Previous)
	assert.Equal(t, -3.0, result.Diff)
	assert.InDelta(t, -30.0, result.DiffPct, 1e-9)
	assert.Equal(t, metrics.DirectionDown, result.Direction)

	queries := h.repo.recorded()
	require.Len(t, queries, 2)
	assert.ElementsMatch(t, []metrics.TimeWindow{day("2024-03-15"), day("2024-03-14")},
		[]metrics.TimeWindow{queries[0].Window, queries[1].Window})
}

func TestInconsistentSnapshotForcesAggregation(t *testing.T) {
	h := newHarness()
	h.shared.store(t, acme, "2024-03-15", metrics.Snapshot{TotalOrders: 0, ConversionRate: 5})
	h.shared.store(t, acme, "2024-03-14", metrics.Snapshot{TotalOrders: 10, ConversionRate: 2.5})
	h.repo.daily["2024-03-14"] = metrics.Totals{Orders: 10, Sessions: 400}
	h.repo.daily["2024-03-15"] = metrics.Totals{Orders: 4, Sessions: 200}

	result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricConversionRate, day("2024-03-15"), metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, result.Current)
	assert.Equal(t, 2.5, result.Previous)
	assert.EqualValues(t, 1, h.resolver.calls.Load())

	// the bad entry is left in place for other readers
	snap := h.cache.Get(context.Background(), acme, "2024-03-15")
	require.NotNil(t, snap)
	assert.Equal(t, 5.0, snap.ConversionRate)
}

func TestZeroOrderSnapshotWithZeroConversionIsServed(t *testing.T) {
	h := newHarness()
	h.shared.store(t, acme, "2024-03-15", metrics.Snapshot{TotalSessions: 20})
	h.shared.store(t, acme, "2024-03-14", metrics.Snapshot{})

	result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalSessions, day("2024-03-15"), metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.DiffPct)
	assert.Equal(t, metrics.DirectionUp, result.Direction)
	assert.EqualValues(t, 0, h.resolver.calls.Load())
}

func TestCachedAndAggregatedPathsAgree(t *testing.T) {
	h := newHarness()
	h.repo.daily["2024-03-13"] = metrics.Totals{Orders: 9, Sales: 2999.99, Sessions: 301, ATCSessions: 33}
	h.repo.daily["2024-03-14"] = metrics.Totals{Orders: 0, Sales: 0, Sessions: 17, ATCSessions: 2}
	h.repo.daily["2024-03-15"] = metrics.Totals{Orders: 7, Sales: 2100.5, Sessions: 350, ATCSessions: 40}

	ctx := context.Background()
	window := day("2024-03-15")

	aggregated, err := h.delta.ComputeDeltas(ctx, acme, nil, window, metrics.Options{})
	require.NoError(t, err)
	require.Positive(t, h.resolver.calls.Load())

	_, err = h.warmer.WarmTenant(ctx, acme, metrics.TimeWindow{Start: "2024-03-13", End: "2024-03-15"}, nil)
	require.NoError(t, err)
	before := h.resolver.calls.Load()

	cached, err := h.delta.ComputeDeltas(ctx, acme, nil, window, metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, before, h.resolver.calls.Load(), "cached path must not touch the database")
	assert.Equal(t, aggregated, cached)

	// a zero-order day still agrees
	aggregated, err = h.delta.ComputeDeltas(ctx, acme, nil, day("2024-03-14"), metrics.Options{AlignMode: metrics.AlignNone, CompareMode: metrics.ComparePrevRangeAvg})
	require.NoError(t, err)
	cached, err = h.delta.ComputeDeltas(ctx, acme, nil, day("2024-03-14"), metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, aggregated, cached)
}

func TestComputeDeltaPropagatesDatabaseErrors(t *testing.T) {
	h := newHarness()
	h.repo.err = metrics.DatabaseUnavailable(acme, errors.New("connection refused"))

	_, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalSales, day("2024-03-15"), metrics.Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, metrics.ErrTenantDatabaseUnavailable)

	h.resolver.err = metrics.DatabaseUnavailable(acme, errors.New("dial tcp: timeout"))
	_, err = h.delta.ComputeDeltas(context.Background(), acme, nil, day("2024-03-15"), metrics.Options{})
	assert.ErrorIs(t, err, metrics.ErrTenantDatabaseUnavailable)
}

func TestComputeDeltaValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.delta.ComputeDelta(ctx, acme, "bounce_rate", day("2024-03-15"), metrics.Options{})
	assert.ErrorIs(t, err, metrics.ErrUnknownMetric)
	assert.True(t, IsClientError(err))

	_, err = h.delta.ComputeDelta(ctx, acme, metrics.MetricTotalOrders, metrics.TimeWindow{Start: "2024-03-16", End: "2024-03-15"}, metrics.Options{})
	assert.ErrorIs(t, err, metrics.ErrInvalidWindow)

	_, err = h.delta.ComputeDelta(ctx, acme, metrics.MetricTotalOrders, day("2024-03-15"), metrics.Options{AlignMode: "minute"})
	assert.ErrorIs(t, err, metrics.ErrInvalidOption)

	assert.False(t, IsClientError(metrics.ErrTenantDatabaseUnavailable))
}

func TestMissingWindowBoundDefaultsToTheOther(t *testing.T) {
	h := newHarness()
	h.repo.daily["2024-03-15"] = metrics.Totals{Orders: 3}

	result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
		metrics.TimeWindow{Start: "2024-03-15"}, metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-15"), result.Range)
	assert.Equal(t, 3.0, result.Current)
}

func TestHourAlignmentBoundsBothPeriods(t *testing.T) {
	h := newHarness()

	_, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
		day("2024-03-15"), metrics.Options{AlignMode: metrics.AlignHour})
	require.NoError(t, err)

	queries := h.repo.recorded()
	require.Len(t, queries, 2)
	bounds := map[metrics.CalendarDate]*metrics.BoundedDate{}
	for _, q := range queries {
		bounds[q.Window.Start] = q.Bound
	}

	require.NotNil(t, bounds["2024-03-15"])
	assert.Equal(t, metrics.AlignmentCutoff{IsToday: true, CutoffHour: 10, CutoffTimeOfDay: "10:45:30"}, bounds["2024-03-15"].Cutoff)

	require.NotNil(t, bounds["2024-03-14"])
	assert.Equal(t, metrics.CalendarDate("2024-03-14"), bounds["2024-03-14"].Date)
	assert.Equal(t, 9, bounds["2024-03-14"].Cutoff.CutoffHour)
	assert.Equal(t, "10:45:30", bounds["2024-03-14"].Cutoff.CutoffTimeOfDay)
}

func TestHourAlignmentIgnoresPastWindows(t *testing.T) {
	h := newHarness()

	_, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
		metrics.TimeWindow{Start: "2024-03-01", End: "2024-03-07"}, metrics.Options{AlignMode: metrics.AlignHour})
	require.NoError(t, err)
	for _, q := range h.repo.recorded() {
		assert.Nil(t, q.Bound)
	}
}

func TestPrevRangeAverageUsesPerDayValues(t *testing.T) {
	h := newHarness()
	for d, orders := range map[metrics.CalendarDate]float64{
		"2024-03-10": 3, "2024-03-11": 6, "2024-03-12": 9,
		"2024-03-13": 6, "2024-03-14": 6, "2024-03-15": 12,
	} {
		h.repo.daily[d] = metrics.Totals{Orders: orders, Sales: orders * 100, Sessions: 100}
	}

	window := metrics.TimeWindow{Start: "2024-03-13", End: "2024-03-15"}
	result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders, window,
		metrics.Options{CompareMode: metrics.ComparePrevRangeAvg})
	require.NoError(t, err)
	assert.Equal(t, 8.0, result.Current)
	assert.Equal(t, 6.0, result.Previous)

	aov, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricAverageOrderValue, window,
		metrics.Options{CompareMode: metrics.ComparePrevRangeAvg})
	require.NoError(t, err)
	assert.Equal(t, 100.0, aov.Current)
	assert.Equal(t, metrics.DirectionFlat, aov.Direction)
}

func TestComputeDeltasKeepsRequestedOrder(t *testing.T) {
	h := newHarness()
	h.repo.daily["2024-03-15"] = metrics.Totals{Orders: 2, Sales: 500, Sessions: 100, ATCSessions: 10}

	list := []metrics.Metric{metrics.MetricConversionRate, metrics.MetricTotalSales, metrics.MetricTotalOrders}
	results, err := h.delta.ComputeDeltas(context.Background(), acme, list, day("2024-03-15"), metrics.Options{})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, m := range list {
		assert.Equal(t, m, results[i].Metric)
	}
	assert.Equal(t, 2.0, results[0].Current)
	assert.Equal(t, 500.0, results[1].Current)

	all, err := h.delta.ComputeDeltas(context.Background(), acme, nil, day("2024-03-15"), metrics.Options{})
	require.NoError(t, err)
	assert.Len(t, all, len(metrics.AllMetrics))
}

func TestComputeDeltaNormalizesOptionSpelling(t *testing.T) {
	t.Run("align mode in upper case bounds both periods", func(t *testing.T) {
		h := newHarness()
		_, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
			day("2024-03-15"), metrics.Options{AlignMode: "HOUR"})
		require.NoError(t, err)

		queries := h.repo.recorded()
		require.Len(t, queries, 2)
		for _, q := range queries {
			assert.NotNil(t, q.Bound, q.Window.String())
		}
	})

	t.Run("compare mode in upper case averages per day", func(t *testing.T) {
		h := newHarness()
		for d, orders := range map[metrics.CalendarDate]float64{
			"2024-03-10": 3, "2024-03-11": 6, "2024-03-12": 9,
			"2024-03-13": 6, "2024-03-14": 6, "2024-03-15": 12,
		} {
			h.repo.daily[d] = metrics.Totals{Orders: orders, Sales: orders * 100, Sessions: 100}
		}

		result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
			metrics.TimeWindow{Start: "2024-03-13", End: "2024-03-15"}, metrics.Options{CompareMode: "PREV-RANGE-AVG"})
		require.NoError(t, err)
		assert.Equal(t, 8.0, result.Current)
		assert.Equal(t, 6.0, result.Previous)
	})

	t.Run("explicit none stays cache eligible", func(t *testing.T) {
		h := newHarness()
		h.shared.store(t, acme, "2025-06-01", metrics.Snapshot{TotalOrders: 120, ConversionRate: 3})
		h.shared.store(t, acme, "2025-05-31", metrics.Snapshot{TotalOrders: 100, ConversionRate: 2.5})

		result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
			day("2025-06-01"), metrics.Options{AlignMode: "none", CompareMode: " Contiguous "})
		require.NoError(t, err)
		assert.Equal(t, 20.0, result.Diff)
		assert.EqualValues(t, 0, h.resolver.calls.Load())
	})

	t.Run("payment mode in upper case filters orders", func(t *testing.T) {
		h := newHarness()
		_, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
			day("2024-03-15"), metrics.Options{Filters: metrics.Filters{PaymentMode: "COD"}})
		require.NoError(t, err)
		for _, q := range h.repo.recorded() {
			assert.Equal(t, metrics.PaymentCOD, q.Filters.PaymentMode)
		}
	})

	t.Run("unknown spelling is rejected", func(t *testing.T) {
		h := newHarness()
		_, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders,
			day("2025-06-01"), metrics.Options{AlignMode: "minute"})
		require.ErrorIs(t, err, metrics.ErrInvalidOption)
	})
}

func TestNullCachedSnapshotFallsBackToAggregation(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.shared.Set(context.Background(), "metrics:acme:2025-06-01", []byte("null"), 0))
	h.shared.store(t, acme, "2025-05-31", metrics.Snapshot{TotalOrders: 100, ConversionRate: 2.5})
	h.repo.daily["2025-06-01"] = metrics.Totals{Orders: 120, Sales: 50000, Sessions: 4000}
	h.repo.daily["2025-05-31"] = metrics.Totals{Orders: 100, Sales: 40000, Sessions: 4000}

	result, err := h.delta.ComputeDelta(context.Background(), acme, metrics.MetricTotalOrders, day("2025-06-01"), metrics.Options{})
	require.NoError(t, err)
	assert.Equal(t, 120.0, result.Current)
	assert.Equal(t, 100.0, result.Previous)
	assert.Equal(t, metrics.DirectionUp, result.Direction)
	assert.EqualValues(t, 1, h.resolver.calls.Load())
}
