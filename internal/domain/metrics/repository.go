package metrics

import (
	"context"
	"fmt"
	"time"
)

// PeriodQuery describes one side of a comparison.
type PeriodQuery struct {
	Window TimeWindow
	// Bound, when set, truncates one date of Window at its cutoff.
	Bound   *BoundedDate
	Filters Filters
}

// DayTotals are the totals of a single date.
type DayTotals struct {
	Date CalendarDate `db:"date"`
	Totals
}

// HourTotals are the totals of a single hour bucket.
type HourTotals struct {
	Hour int `db:"hour"`
	Totals
}

// AggregateRepository computes KPI totals from a tenant's analytics tables.
// Failures are reported as ErrTenantDatabaseUnavailable.
type AggregateRepository interface {
	PeriodTotals(ctx context.Context, q PeriodQuery) (Totals, error)
	DailyTotals(ctx context.Context, q PeriodQuery) ([]DayTotals, error)
	HourlyTotals(ctx context.Context, date CalendarDate, cutoffHour int) ([]HourTotals, error)
}

// RepositoryResolver hands out the aggregate repository of a tenant,
// opening its database lazily.
type RepositoryResolver interface {
	AggregateRepository(ctx context.Context, tenant TenantKey) (AggregateRepository, error)
}

// Scan lets database drivers fill a CalendarDate from DATE, DATETIME or
// text columns.
func (d *CalendarDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = CalendarDate(v.Format(dateLayout))
		return nil
	case []byte:
		return d.scanText(string(v))
	case string:
		return d.scanText(v)
	case nil:
		*d = ""
		return nil
	}
	return fmt.Errorf("cannot scan %T into CalendarDate", src)
}

func (d *CalendarDate) scanText(s string) error {
	if len(s) < len(dateLayout) {
		return fmt.Errorf("cannot scan %q into CalendarDate", s)
	}
	parsed, err := ParseDate(s[:len(dateLayout)])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
