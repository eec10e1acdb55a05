package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// AlignMode selects how a partial "today" is compared.
type AlignMode string

const (
	AlignNone AlignMode = ""
	AlignHour AlignMode = "hour"
)

// ParseAlignMode accepts "", "none" and "hour".
func ParseAlignMode(raw string) (AlignMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "none":
		return AlignNone, nil
	case "hour":
		return AlignHour, nil
	}
	return "", fmt.Errorf("%w: alignMode %q", ErrInvalidOption, raw)
}

// CompareMode selects how the two periods are reduced to a value.
type CompareMode string

const (
	CompareContiguous   CompareMode = "contiguous"
	ComparePrevRangeAvg CompareMode = "prev-range-avg"
)

// ParseCompareMode defaults to contiguous.
func ParseCompareMode(raw string) (CompareMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(CompareContiguous):
		return CompareContiguous, nil
	case string(ComparePrevRangeAvg):
		return ComparePrevRangeAvg, nil
	}
	return "", fmt.Errorf("%w: compareMode %q", ErrInvalidOption, raw)
}

// PaymentMode filters orders by how they were paid.
type PaymentMode string

const (
	PaymentAny     PaymentMode = ""
	PaymentCOD     PaymentMode = "cod"
	PaymentPrepaid PaymentMode = "prepaid"
)

// ParsePaymentMode accepts "", "cod" and "prepaid".
func ParsePaymentMode(raw string) (PaymentMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return PaymentAny, nil
	case "cod":
		return PaymentCOD, nil
	case "prepaid":
		return PaymentPrepaid, nil
	}
	return "", fmt.Errorf("%w: payment_mode %q", ErrInvalidOption, raw)
}

// Filters restrict which orders count. Session metrics are not attributable
// to orders and ignore them.
type Filters struct {
	SalesChannels []string    `json:"salesChannels,omitempty"`
	ProductIDs    []string    `json:"productIds,omitempty"`
	PaymentMode   PaymentMode `json:"paymentMode,omitempty"`
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return len(f.SalesChannels) == 0 && len(f.ProductIDs) == 0 && f.PaymentMode == PaymentAny
}

// Normalized drops blanks and duplicates and sorts the value lists.
func (f Filters) Normalized() Filters {
	return Filters{
		SalesChannels: cleanList(f.SalesChannels),
		ProductIDs:    cleanList(f.ProductIDs),
		PaymentMode:   f.PaymentMode,
	}
}

func cleanList(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			v := strings.TrimSpace(part)
			if v == "" {
				continue
			}
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Options tune a delta computation.
type Options struct {
	AlignMode   AlignMode   `json:"alignMode,omitempty"`
	CompareMode CompareMode `json:"compareMode"`
	Filters     Filters     `json:"filters"`
}

// CacheEligible reports whether a window/options pair can be answered from
// daily snapshots.
func CacheEligible(w TimeWindow, opts Options) bool {
	return w.SingleDay() &&
		opts.Filters.Empty() &&
		opts.AlignMode == AlignNone &&
		(opts.CompareMode == CompareContiguous || opts.CompareMode == "")
}
