// Package metrics defines the KPI model shared by the delta engine: dates,
// windows, alignment cutoffs, daily snapshots and delta results.
package metrics

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// TenantKey identifies a brand. Keys are case-insensitive and stored upper-case.
type TenantKey string

// NormalizeTenant trims and upper-cases a raw brand key.
func NormalizeTenant(raw string) TenantKey {
	return TenantKey(strings.ToUpper(strings.TrimSpace(raw)))
}

// Lower returns the lower-case form used in cache keys.
func (t TenantKey) Lower() string {
	return strings.ToLower(string(t))
}

func (t TenantKey) String() string { return string(t) }

// CalendarDate is a business-timezone date in YYYY-MM-DD form.
type CalendarDate string

// ParseDate validates a YYYY-MM-DD string.
func ParseDate(raw string) (CalendarDate, error) {
	raw = strings.TrimSpace(raw)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidWindow, raw)
	}
	return CalendarDate(t.Format(dateLayout)), nil
}

// DateOf returns the calendar date of t in loc.
func DateOf(t time.Time, loc *time.Location) CalendarDate {
	return CalendarDate(t.In(loc).Format(dateLayout))
}

// Time returns midnight UTC of the date. Invalid dates yield the zero time.
func (d CalendarDate) Time() time.Time {
	t, _ := time.Parse(dateLayout, string(d))
	return t
}

func (d CalendarDate) String() string { return string(d) }

// Metric names one of the six tracked KPIs.
type Metric string

const (
	MetricTotalOrders       Metric = "total_orders"
	MetricTotalSales        Metric = "total_sales"
	MetricTotalSessions     Metric = "total_sessions"
	MetricTotalATCSessions  Metric = "total_atc_sessions"
	MetricAverageOrderValue Metric = "average_order_value"
	MetricConversionRate    Metric = "conversion_rate"
)

// AllMetrics lists every supported metric in display order.
var AllMetrics = []Metric{
	MetricTotalOrders,
	MetricTotalSales,
	MetricTotalSessions,
	MetricTotalATCSessions,
	MetricAverageOrderValue,
	MetricConversionRate,
}

// ParseMetric validates a metric name.
func ParseMetric(raw string) (Metric, error) {
	m := Metric(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range AllMetrics {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, raw)
}

// Snapshot is the per-day KPI summary stored in the shared cache.
// ConversionRate is expressed in percent.
type Snapshot struct {
	TotalOrders       float64 `json:"total_orders"`
	TotalSales        float64 `json:"total_sales"`
	TotalSessions     float64 `json:"total_sessions"`
	TotalATCSessions  float64 `json:"total_atc_sessions"`
	AverageOrderValue float64 `json:"average_order_value"`
	ConversionRate    float64 `json:"conversion_rate"`
}

// Consistent reports whether a snapshot with zero orders also has a zero
// conversion rate. Snapshots failing this check must not be served.
func (s Snapshot) Consistent() bool {
	if s.TotalOrders == 0 {
		return s.ConversionRate == 0
	}
	return true
}

// Value returns the snapshot field for m.
func (s Snapshot) Value(m Metric) (float64, error) {
	switch m {
	case MetricTotalOrders:
		return s.TotalOrders, nil
	case MetricTotalSales:
		return s.TotalSales, nil
	case MetricTotalSessions:
		return s.TotalSessions, nil
	case MetricTotalATCSessions:
		return s.TotalATCSessions, nil
	case MetricAverageOrderValue:
		return s.AverageOrderValue, nil
	case MetricConversionRate:
		return s.ConversionRate, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
}

// Totals are the additive sums returned by an aggregation query.
type Totals struct {
	Orders      float64 `db:"total_orders"`
	Sales       float64 `db:"total_sales"`
	Sessions    float64 `db:"total_sessions"`
	ATCSessions float64 `db:"total_atc_sessions"`
}

// Scale multiplies every additive field by f.
func (t Totals) Scale(f float64) Totals {
	return Totals{
		Orders:      t.Orders * f,
		Sales:       t.Sales * f,
		Sessions:    t.Sessions * f,
		ATCSessions: t.ATCSessions * f,
	}
}

// Add sums two sets of totals.
func (t Totals) Add(o Totals) Totals {
	return Totals{
		Orders:      t.Orders + o.Orders,
		Sales:       t.Sales + o.Sales,
		Sessions:    t.Sessions + o.Sessions,
		ATCSessions: t.ATCSessions + o.ATCSessions,
	}
}

// DeriveSnapshot turns additive totals into a snapshot, computing the
// derived ratios. Both the warmer and the aggregation path go through here
// so cached and freshly aggregated values agree.
func DeriveSnapshot(t Totals) Snapshot {
	s := Snapshot{
		TotalOrders:      t.Orders,
		TotalSales:       round2(t.Sales),
		TotalSessions:    t.Sessions,
		TotalATCSessions: t.ATCSessions,
	}
	if t.Orders > 0 {
		s.AverageOrderValue = round2(t.Sales / t.Orders)
	}
	if t.Sessions > 0 {
		s.ConversionRate = round2(t.Orders / t.Sessions * 100)
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
