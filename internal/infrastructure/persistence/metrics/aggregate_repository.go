// Package metrics provides the SQL-based aggregation of KPI totals from a
// tenant's analytics tables.
//
// Tables read:
//   - overall_summary          per-day totals, used for unfiltered full days
//   - hour_wise_sales          per-hour orders and sales, used under an hour cutoff
//   - hourly_sessions_summary  per-hour sessions, used under an hour cutoff
//   - sessions_summary         per-day sessions, used with order filters
//   - shopify_orders           raw order lines, used whenever a filter is set
package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/monitoring"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/persistence/database"
)

var _ metrics.AggregateRepository = (*SQLAggregateRepository)(nil)

const (
	sourceOverallSummary = "overall_summary"
	sourceHourWiseSales  = "hour_wise_sales"
	sourceHourlySessions = "hourly_sessions_summary"
	sourceSessions       = "sessions_summary"
	sourceOrders         = "shopify_orders"

	codPredicate = "(payment_gateway_names LIKE '%Cash on Delivery (COD)%' OR payment_gateway_names LIKE '%cash_on_delivery%')"
)

type grouping int

const (
	groupNone grouping = iota
	groupDate
	groupHour
)

// statement is one aggregation query with its positional arguments, still
// in '?' bindvar form.
type statement struct {
	source string
	query  string
	args   []any
}

// SQLAggregateRepository computes totals for one tenant database.
type SQLAggregateRepository struct {
	db            *database.DB
	tenant        metrics.TenantKey
	logger        *logging.ChanneledLogger
	slowThreshold time.Duration
}

// NewSQLAggregateRepository creates a new instance of the repository.
func NewSQLAggregateRepository(db *database.DB, tenant metrics.TenantKey, logger *logging.ChanneledLogger, slowThreshold time.Duration) *SQLAggregateRepository {
	return &SQLAggregateRepository{
		db:            db,
		tenant:        tenant,
		logger:        logger,
		slowThreshold: slowThreshold,
	}
}

// PeriodTotals sums the window of q, honouring its bound and filters.
func (r *SQLAggregateRepository) PeriodTotals(ctx context.Context, q metrics.PeriodQuery) (metrics.Totals, error) {
	statements, err := plan(q, groupNone)
	if err != nil {
		return metrics.Totals{}, err
	}

	var total metrics.Totals
	for _, st := range statements {
		var part metrics.Totals
		err := r.exec(ctx, st, func(query string, args []any) error {
			return r.db.GetContext(ctx, &part, query, args...)
		})
		if err != nil {
			return metrics.Totals{}, err
		}
		total = total.Add(part)
	}
	return total, nil
}

// DailyTotals returns one entry per date of the window, in date order.
// Dates without rows carry zero totals.
func (r *SQLAggregateRepository) DailyTotals(ctx context.Context, q metrics.PeriodQuery) ([]metrics.DayTotals, error) {
	statements, err := plan(q, groupDate)
	if err != nil {
		return nil, err
	}

	byDate := make(map[metrics.CalendarDate]metrics.Totals, q.Window.Days())
	for _, st := range statements {
		var rows []metrics.DayTotals
		err := r.exec(ctx, st, func(query string, args []any) error {
			return r.db.SelectContext(ctx, &rows, query, args...)
		})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			byDate[row.Date] = byDate[row.Date].Add(row.Totals)
		}
	}

	dates := q.Window.Dates()
	out := make([]metrics.DayTotals, 0, len(dates))
	for _, d := range dates {
		out = append(out, metrics.DayTotals{Date: d, Totals: byDate[d]})
	}
	return out, nil
}

// HourlyTotals returns hours 0 through cutoffHour of date, zero-filled.
func (r *SQLAggregateRepository) HourlyTotals(ctx context.Context, date metrics.CalendarDate, cutoffHour int) ([]metrics.HourTotals, error) {
	cutoffHour = min(max(cutoffHour, 0), 23)
	window := metrics.TimeWindow{Start: date, End: date}
	bound := &metrics.BoundedDate{
		Date:   date,
		Cutoff: metrics.AlignmentCutoff{CutoffHour: cutoffHour, CutoffTimeOfDay: "24:00:00"},
	}
	statements := []statement{
		hourWiseSalesStatement(window, bound, groupHour),
		sessionsStatement(window, bound, true, groupHour),
	}

	byHour := make(map[int]metrics.Totals, cutoffHour+1)
	for _, st := range statements {
		var rows []metrics.HourTotals
		err := r.exec(ctx, st, func(query string, args []any) error {
			return r.db.SelectContext(ctx, &rows, query, args...)
		})
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			byHour[row.Hour] = byHour[row.Hour].Add(row.Totals)
		}
	}

	out := make([]metrics.HourTotals, 0, cutoffHour+1)
	for h := 0; h <= cutoffHour; h++ {
		out = append(out, metrics.HourTotals{Hour: h, Totals: byHour[h]})
	}
	return out, nil
}

func (r *SQLAggregateRepository) exec(ctx context.Context, st statement, run func(query string, args []any) error) error {
	start := time.Now()
	query := r.db.Rebind(st.query)
	err := run(query, st.args)
	duration := time.Since(start)

	monitoring.AggregationQueryDurationSeconds.WithLabelValues(st.source).Observe(duration.Seconds())
	database.CheckAndLogSlowQuery(r.logger, st.query, duration, r.tenant.String(), r.slowThreshold)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		r.logger.Database().Error("Aggregation query failed",
			"tenantId", r.tenant,
			"source", st.source,
			"error", err.Error())
		return metrics.DatabaseUnavailable(r.tenant, fmt.Errorf("query %s: %w", st.source, err))
	}

	r.logger.Database().Debug("Aggregation query completed",
		"tenantId", r.tenant,
		"source", st.source,
		"duration", duration)
	return nil
}

// plan picks the tables that answer q. Filters force the raw order lines;
// an hour cutoff forces the per-hour tables; otherwise the daily summary
// answers everything in one query.
func plan(q metrics.PeriodQuery, g grouping) ([]statement, error) {
	var bound *metrics.BoundedDate
	if q.Bound != nil && q.Bound.Cutoff.Truncates() && q.Window.Contains(q.Bound.Date) {
		bound = q.Bound
	}

	filters := q.Filters.Normalized()
	switch {
	case !filters.Empty():
		orders, err := ordersStatement(q.Window, bound, filters, g)
		if err != nil {
			return nil, err
		}
		return []statement{orders, sessionsStatement(q.Window, bound, bound != nil, g)}, nil
	case bound != nil:
		return []statement{
			hourWiseSalesStatement(q.Window, bound, g),
			sessionsStatement(q.Window, bound, true, g),
		}, nil
	default:
		return []statement{overallSummaryStatement(q.Window, g)}, nil
	}
}

func selectPrefix(g grouping, dateColumn string) string {
	switch g {
	case groupDate:
		return dateColumn + " AS date, "
	case groupHour:
		return "hour AS hour, "
	}
	return ""
}

func groupSuffix(g grouping, dateColumn string) string {
	switch g {
	case groupDate:
		return " GROUP BY " + dateColumn
	case groupHour:
		return " GROUP BY hour"
	}
	return ""
}

func windowArgs(w metrics.TimeWindow) []any {
	return []any{w.Start.String(), w.End.String()}
}

func overallSummaryStatement(w metrics.TimeWindow, g grouping) statement {
	query := "SELECT " + selectPrefix(g, "date") +
		`COALESCE(SUM(total_orders), 0) AS total_orders,
		COALESCE(SUM(total_sales), 0) AS total_sales,
		COALESCE(SUM(total_sessions), 0) AS total_sessions,
		COALESCE(SUM(total_atc_sessions), 0) AS total_atc_sessions
		FROM overall_summary
		WHERE date BETWEEN ? AND ?` + groupSuffix(g, "date")
	return statement{source: sourceOverallSummary, query: query, args: windowArgs(w)}
}

func hourWiseSalesStatement(w metrics.TimeWindow, bound *metrics.BoundedDate, g grouping) statement {
	args := windowArgs(w)
	query := "SELECT " + selectPrefix(g, "date") +
		`COALESCE(SUM(number_of_orders), 0) AS total_orders,
		COALESCE(SUM(total_sales), 0) AS total_sales,
		0 AS total_sessions,
		0 AS total_atc_sessions
		FROM hour_wise_sales
		WHERE date BETWEEN ? AND ?`
	if bound != nil {
		query += " AND (date <> ? OR hour <= ?)"
		args = append(args, bound.Date.String(), bound.Cutoff.CutoffHour)
	}
	return statement{source: sourceHourWiseSales, query: query + groupSuffix(g, "date"), args: args}
}

func sessionsStatement(w metrics.TimeWindow, bound *metrics.BoundedDate, hourly bool, g grouping) statement {
	table, source := "sessions_summary", sourceSessions
	if hourly || g == groupHour {
		table, source = "hourly_sessions_summary", sourceHourlySessions
	}
	args := windowArgs(w)
	query := "SELECT " + selectPrefix(g, "date") +
		`0 AS total_orders,
		0 AS total_sales,
		COALESCE(SUM(number_of_sessions), 0) AS total_sessions,
		COALESCE(SUM(number_of_atc_sessions), 0) AS total_atc_sessions
		FROM ` + table + `
		WHERE date BETWEEN ? AND ?`
	if bound != nil && table == "hourly_sessions_summary" {
		query += " AND (date <> ? OR hour <= ?)"
		args = append(args, bound.Date.String(), bound.Cutoff.CutoffHour)
	}
	return statement{source: source, query: query + groupSuffix(g, "date"), args: args}
}

// ordersStatement aggregates raw order lines. Orders count once however many
// lines they have; sales come from the order total, or from the matching
// line items when products are filtered.
func ordersStatement(w metrics.TimeWindow, bound *metrics.BoundedDate, f metrics.Filters, g grouping) (statement, error) {
	if g == groupHour {
		return statement{}, fmt.Errorf("%w: hourly breakdown does not support filters", metrics.ErrInvalidOption)
	}

	sales := "COALESCE(SUM(COALESCE(total_price, 0)), 0)"
	if len(f.ProductIDs) > 0 {
		sales = "COALESCE(SUM(line_item_price * line_item_quantity), 0)"
	}

	var where strings.Builder
	where.WriteString("created_date BETWEEN ? AND ?")
	args := windowArgs(w)

	if bound != nil {
		where.WriteString(" AND (created_date <> ? OR created_time < ?)")
		args = append(args, bound.Date.String(), bound.Cutoff.CutoffTimeOfDay)
	}
	if len(f.SalesChannels) > 0 {
		where.WriteString(" AND order_app_name IN (?)")
		args = append(args, f.SalesChannels)
	}
	if len(f.ProductIDs) > 0 {
		where.WriteString(" AND product_id IN (?)")
		args = append(args, f.ProductIDs)
	}
	switch f.PaymentMode {
	case metrics.PaymentCOD:
		where.WriteString(" AND " + codPredicate)
	case metrics.PaymentPrepaid:
		where.WriteString(" AND payment_gateway_names IS NOT NULL AND payment_gateway_names <> '' AND NOT " + codPredicate)
	}

	query := "SELECT " + selectPrefix(g, "created_date") +
		"COUNT(DISTINCT order_id) AS total_orders, " +
		sales + ` AS total_sales,
		0 AS total_sessions,
		0 AS total_atc_sessions
		FROM shopify_orders
		WHERE ` + where.String() + groupSuffix(g, "created_date")

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return statement{}, fmt.Errorf("failed to expand order filters: %w", err)
	}
	return statement{source: sourceOrders, query: query, args: args}, nil
}

// Sources lists the tables a query for q would read, for diagnostics.
func Sources(q metrics.PeriodQuery) []string {
	statements, err := plan(q, groupNone)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(statements))
	for _, st := range statements {
		out = append(out, st.source)
	}
	sort.Strings(out)
	return out
}
