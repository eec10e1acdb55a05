package services

import (
	"strings"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

// DeltaRequest is a validated delta or trend request.
type DeltaRequest struct {
	Metrics []metrics.Metric
	Window  metrics.TimeWindow
	Options metrics.Options
}

// ParseRequest validates raw query parameters against the business clock.
// A missing window bound defaults to the other one; a missing window
// defaults to today. Parameter names are accepted in camelCase and
// snake_case.
func (s *MetricsDeltaService) ParseRequest(raw map[string][]string) (*DeltaRequest, error) {
	return ParseRequest(raw, s.clock.Today())
}

// ParseRequest is the clock-free form of MetricsDeltaService.ParseRequest.
func ParseRequest(raw map[string][]string, today metrics.CalendarDate) (*DeltaRequest, error) {
	req := &DeltaRequest{}

	for _, name := range values(raw, "metric", "metrics") {
		metric, err := metrics.ParseMetric(name)
		if err != nil {
			return nil, err
		}
		req.Metrics = append(req.Metrics, metric)
	}

	start, end := first(raw, "start", "startDate", "start_date"), first(raw, "end", "endDate", "end_date")
	if start == "" && end == "" {
		start, end = today.String(), today.String()
	}
	if start == "" {
		start = end
	}
	if end == "" {
		end = start
	}
	startDate, err := metrics.ParseDate(start)
	if err != nil {
		return nil, err
	}
	endDate, err := metrics.ParseDate(end)
	if err != nil {
		return nil, err
	}
	if req.Window, err = metrics.NewTimeWindow(startDate, endDate); err != nil {
		return nil, err
	}

	if req.Options.AlignMode, err = metrics.ParseAlignMode(first(raw, "alignMode", "align_mode", "align")); err != nil {
		return nil, err
	}
	if req.Options.CompareMode, err = metrics.ParseCompareMode(first(raw, "compareMode", "compare_mode", "compare")); err != nil {
		return nil, err
	}
	if req.Options.Filters.PaymentMode, err = metrics.ParsePaymentMode(first(raw, "paymentMode", "payment_mode")); err != nil {
		return nil, err
	}
	req.Options.Filters.SalesChannels = values(raw, "salesChannel", "sales_channel")
	req.Options.Filters.ProductIDs = values(raw, "productId", "product_id")
	req.Options.Filters = req.Options.Filters.Normalized()

	return req, nil
}

func first(raw map[string][]string, keys ...string) string {
	for _, key := range keys {
		for _, v := range raw[key] {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return ""
}

// values collects every comma-separated entry of keys, in order.
func values(raw map[string][]string, keys ...string) []string {
	var out []string
	for _, key := range keys {
		for _, v := range raw[key] {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}
