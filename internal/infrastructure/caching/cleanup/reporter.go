// Package cleanup provides ascii reporter
package cleanup

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/caching/interfaces"
)

const (
	cyan        = "\033[38;2;86;182;194m"
	cyanBright  = "\033[38;2;97;228;240m"
	dimCyan     = "\033[38;2;47;91;102m"
	grey        = "\033[38;2;110;118;129m"
	dimGrey     = "\033[38;2;75;82;99m"
	success     = "\033[38;2;62;130;144m"
	errorRed    = "\033[38;2;224;108;117m"
	white       = "\033[38;2;171;178;191m"
	whiteBright = "\033[38;2;220;225;230m"
	purple      = "\033[38;2;198;120;221m"
	dimPurple   = "\033[38;2;142;87;158m"
	reset       = "\033[0m"
	bold        = "\033[1m"
)

type Reporter struct {
	cache interfaces.SnapshotCache
	out   io.Writer
}

func NewReporter(cache interfaces.SnapshotCache) *Reporter {
	return &Reporter{cache: cache, out: os.Stdout}
}

// WithOutput redirects the reporter.
func (r *Reporter) WithOutput(w io.Writer) *Reporter {
	r.out = w
	return r
}

func (r *Reporter) LogStage(message string, args ...any) {
	fmt.Fprintf(r.out, "%s%s✦ %s%s%s\n", success, bold, grey, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) LogError(message string, err error) {
	fmt.Fprintf(r.out, "%s%s✖ ERROR: %s%s: %v%s\n", bold, errorRed, grey, message, err, reset)
}

func (r *Reporter) LogInfo(message string, args ...any) {
	fmt.Fprintf(r.out, "%s▶ %s%s%s\n", dimGrey, grey, fmt.Sprintf(message, args...), reset)
}

func (r *Reporter) WriteTenantReport(tenant metrics.TenantKey) {
	fmt.Fprint(r.out, r.GenerateTenantReport(tenant))
}

func (r *Reporter) GenerateTenantReport(tenant metrics.TenantKey) string {
	var report strings.Builder
	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 MST")

	report.WriteString(fmt.Sprintf("%s%s▓ %s | Tenant: %s%s %s\n", bold, dimCyan, timestamp, whiteBright, tenant, reset))

	stats, ok := r.cache.Stats(tenant)
	if !ok {
		report.WriteString(fmt.Sprintf("%s✖ %sMemory tier: %sNOT INITIALIZED%s\n", errorRed, grey, errorRed, reset))
		return report.String()
	}

	formatItem := func(label string, count int64, labelColor, valueColor string) string {
		if count > 0 {
			return fmt.Sprintf(" %s%s:%s%d", labelColor, label, valueColor, count)
		}
		return fmt.Sprintf(" %s%s:%s--", dimGrey, label, dimGrey)
	}

	var tierLine strings.Builder
	tierLine.WriteString(fmt.Sprintf("%s✦ memory tier:%s", cyanBright, reset))
	tierLine.WriteString(formatItem("snapshots", int64(stats.Entries), dimCyan, cyan))
	tierLine.WriteString(formatItem("in-flight", int64(stats.Pending), dimCyan, cyan))
	report.WriteString(tierLine.String() + reset + "\n")

	var activityLine strings.Builder
	activityLine.WriteString(fmt.Sprintf("%s✦ activity:%s", purple, reset))
	activityLine.WriteString(formatItem("hits", stats.Hits, dimPurple, white))
	activityLine.WriteString(formatItem("misses", stats.Misses, dimPurple, white))
	activityLine.WriteString(formatItem("coalesced", stats.Coalesced, dimPurple, white))
	report.WriteString(activityLine.String() + reset + "\n")

	return report.String()
}
