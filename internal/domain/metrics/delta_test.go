package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeDelta(t *testing.T) {
	w := TimeWindow{"2024-03-15", "2024-03-15"}
	cases := []struct {
		name      string
		cur, prev float64
		diff, pct float64
		dir       Direction
	}{
		{"decline", 7, 10, -3, -30, DirectionDown},
		{"growth from zero", 5, 0, 5, 100, DirectionUp},
		{"both zero", 0, 0, 0, 0, DirectionFlat},
		{"below epsilon", 1.00005, 1.0, 0.00005, 0.005, DirectionFlat},
		{"growth", 120, 100, 20, 20, DirectionUp},
		{"drop to zero", 0, 40, -40, -100, DirectionDown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeDelta(MetricTotalOrders, w, tc.cur, tc.prev)
			assert.Equal(t, MetricTotalOrders, got.Metric)
			assert.Equal(t, w, got.Range)
			assert.Equal(t, tc.cur, got.Current)
			assert.Equal(t, tc.prev, got.Previous)
			assert.InDelta(t, tc.diff, got.Diff, 1e-9)
			assert.InDelta(t, tc.pct, got.DiffPct, 1e-6)
			assert.Equal(t, tc.dir, got.Direction)
		})
	}
}

func TestComputeDeltaIgnoresMetric(t *testing.T) {
	w := TimeWindow{"2024-03-15", "2024-03-15"}
	base := ComputeDelta(MetricTotalOrders, w, 416.67, 312.5)
	for _, m := range AllMetrics {
		got := ComputeDelta(m, w, 416.67, 312.5)
		assert.Equal(t, base.Diff, got.Diff)
		assert.Equal(t, base.DiffPct, got.DiffPct)
		assert.Equal(t, base.Direction, got.Direction)
	}
}
