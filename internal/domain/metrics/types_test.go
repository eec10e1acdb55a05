package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotConsistent(t *testing.T) {
	assert.True(t, Snapshot{TotalOrders: 0, ConversionRate: 0}.Consistent())
	assert.False(t, Snapshot{TotalOrders: 0, ConversionRate: 2.5}.Consistent())
	assert.True(t, Snapshot{TotalOrders: 12, ConversionRate: 2.5}.Consistent())
	assert.True(t, Snapshot{TotalOrders: 12, ConversionRate: 0}.Consistent())
}

func TestSnapshotValue(t *testing.T) {
	s := Snapshot{
		TotalOrders:       120,
		TotalSales:        50000,
		TotalSessions:     4000,
		TotalATCSessions:  300,
		AverageOrderValue: 416.67,
		ConversionRate:    3,
	}
	want := map[Metric]float64{
		MetricTotalOrders:       120,
		MetricTotalSales:        50000,
		MetricTotalSessions:     4000,
		MetricTotalATCSessions:  300,
		MetricAverageOrderValue: 416.67,
		MetricConversionRate:    3,
	}
	for m, v := range want {
		got, err := s.Value(m)
		require.NoError(t, err)
		assert.Equal(t, v, got, m)
	}

	_, err := s.Value("bounce_rate")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestDeriveSnapshot(t *testing.T) {
	s := DeriveSnapshot(Totals{Orders: 120, Sales: 50000, Sessions: 4000, ATCSessions: 300})
	assert.Equal(t, 416.67, s.AverageOrderValue)
	assert.Equal(t, 3.0, s.ConversionRate)
	assert.True(t, s.Consistent())

	empty := DeriveSnapshot(Totals{Sessions: 500})
	assert.Zero(t, empty.AverageOrderValue)
	assert.Zero(t, empty.ConversionRate)
	assert.True(t, empty.Consistent())
}

func TestDeriveSnapshotRatiosSurviveScaling(t *testing.T) {
	totals := Totals{Orders: 90, Sales: 27000, Sessions: 3000, ATCSessions: 210}
	full := DeriveSnapshot(totals)
	avg := DeriveSnapshot(totals.Scale(1.0 / 3))
	assert.InDelta(t, full.AverageOrderValue, avg.AverageOrderValue, 0.01)
	assert.InDelta(t, full.ConversionRate, avg.ConversionRate, 0.01)
	assert.InDelta(t, 30, avg.TotalOrders, 1e-9)
}

func TestNormalizeTenant(t *testing.T) {
	assert.Equal(t, TenantKey("ACME"), NormalizeTenant(" acme "))
	assert.Equal(t, "acme", NormalizeTenant("Acme").Lower())
}

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric("Total_Orders")
	require.NoError(t, err)
	assert.Equal(t, MetricTotalOrders, m)

	_, err = ParseMetric("refunds")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestCalendarDateScan(t *testing.T) {
	var d CalendarDate
	require.NoError(t, d.Scan(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, CalendarDate("2024-03-15"), d)

	require.NoError(t, d.Scan([]byte("2024-03-14")))
	assert.Equal(t, CalendarDate("2024-03-14"), d)

	require.NoError(t, d.Scan("2024-03-13T00:00:00Z"))
	assert.Equal(t, CalendarDate("2024-03-13"), d)

	assert.Error(t, d.Scan(42))
}

func TestDatabaseUnavailableWrapping(t *testing.T) {
	cause := assert.AnError
	err := DatabaseUnavailable("ACME", cause)
	assert.ErrorIs(t, err, ErrTenantDatabaseUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "ACME")

	assert.Same(t, err, DatabaseUnavailable("ACME", err))
	assert.NoError(t, DatabaseUnavailable("ACME", nil))
}
