package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

func TestHourlyTrendStopsAtCurrentHour(t *testing.T) {
	h := newHarness()
	h.repo.hourly["2024-03-15"] = map[int]metrics.Totals{9: {Orders: 2, Sales: 600, Sessions: 100}}
	h.repo.hourly["2024-03-14"] = map[int]metrics.Totals{9: {Orders: 4, Sales: 1200}, 13: {Orders: 6}}

	trend, err := h.delta.ComputeTrend(context.Background(), acme, metrics.MetricTotalOrders, day("2024-03-15"), metrics.Options{})
	require.NoError(t, err)

	assert.Equal(t, GranularityHour, trend.Granularity)
	assert.Equal(t, day("2024-03-14"), trend.PreviousRange)
	require.Len(t, trend.Points, 11)

	nine := trend.Points[9]
	assert.Equal(t, "09:00", nine.Label)
	require.NotNil(t, nine.Hour)
	assert.Equal(t, 9, *nine.Hour)
	assert.Equal(t, 2.0, nine.Current)
	assert.Equal(t, 4.0, nine.Previous)
	assert.Equal(t, metrics.CalendarDate("2024-03-14"), nine.PreviousDate)
}

func TestHourlyTrendCoversPastDays(t *testing.T) {
	h := newHarness()
	h.repo.hourly["2024-03-10"] = map[int]metrics.Totals{23: {Orders: 1, Sales: 250}}

	trend, err := h.delta.ComputeTrend(context.Background(), acme, metrics.MetricAverageOrderValue, day("2024-03-10"), metrics.Options{})
	require.NoError(t, err)
	require.Len(t, trend.Points, 24)
	assert.Equal(t, "23:00", trend.Points[23].Label)
	assert.Equal(t, 250.0, trend.Points[23].Current)
	assert.Zero(t, trend.Points[23].Previous)
}

func TestDailyTrendPairsDatesByPosition(t *testing.T) {
	h := newHarness()
	for d, orders := range map[metrics.CalendarDate]float64{
		"2024-03-10": 1, "2024-03-11": 2, "2024-03-12": 3,
		"2024-03-13": 4, "2024-03-14": 5, "2024-03-15": 6,
	} {
		h.repo.daily[d] = metrics.Totals{Orders: orders}
	}

	window := metrics.TimeWindow{Start: "2024-03-13", End: "2024-03-15"}
	trend, err := h.delta.ComputeTrend(context.Background(), acme, metrics.MetricTotalOrders, window, metrics.Options{})
	require.NoError(t, err)

	assert.Equal(t, GranularityDay, trend.Granularity)
	assert.Equal(t, metrics.TimeWindow{Start: "2024-03-10", End: "2024-03-12"}, trend.PreviousRange)
	require.Len(t, trend.Points, 3)
	for i, p := range trend.Points {
		assert.Equal(t, float64(i+4), p.Current)
		assert.Equal(t, float64(i+1), p.Previous)
		assert.Nil(t, p.Hour)
	}
	assert.Equal(t, metrics.CalendarDate("2024-03-11"), trend.Points[1].PreviousDate)
}

func TestFilteredSingleDayTrendIsDaily(t *testing.T) {
	h := newHarness()
	h.repo.daily["2024-03-15"] = metrics.Totals{Orders: 3}

	trend, err := h.delta.ComputeTrend(context.Background(), acme, metrics.MetricTotalOrders, day("2024-03-15"),
		metrics.Options{Filters: metrics.Filters{PaymentMode: metrics.PaymentCOD}})
	require.NoError(t, err)
	assert.Equal(t, GranularityDay, trend.Granularity)
	require.Len(t, trend.Points, 1)

	for _, q := range h.repo.recorded() {
		assert.Equal(t, metrics.PaymentCOD, q.Filters.PaymentMode)
	}
}

func TestTrendPropagatesRepositoryErrors(t *testing.T) {
	h := newHarness()
	h.repo.err = metrics.DatabaseUnavailable(acme, errors.New("too many connections"))

	_, err := h.delta.ComputeTrend(context.Background(), acme, metrics.MetricTotalOrders, day("2024-03-15"), metrics.Options{})
	assert.ErrorIs(t, err, metrics.ErrTenantDatabaseUnavailable)
}
