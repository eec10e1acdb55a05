package main

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/services"
	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

func newWarmCmd(a *app) *cobra.Command {
	var days int
	var start, end string

	cmd := &cobra.Command{
		Use:   "warm [TENANT...]",
		Short: "Write daily snapshots to the shared cache",
		Long: `Aggregate daily totals from each tenant database and write one snapshot per
date to the shared cache. Without tenants every active tenant is warmed.

Examples:
  snapshotctl warm --days 14
  snapshotctl warm ACME --start 2025-05-01 --end 2025-05-31`,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := warmWindow(a.container.DeltaService.Clock().Today(), days, start, end)
			if err != nil {
				return err
			}

			tenants := a.container.TenantManager.ActiveTenants()
			if len(args) > 0 {
				tenants = tenants[:0]
				for _, arg := range args {
					tenants = append(tenants, metrics.NormalizeTenant(arg))
				}
			}
			if len(tenants) == 0 {
				fmt.Fprintln(a.stdout, "No active tenants in the registry.")
				return nil
			}

			var failed int
			for _, tenantID := range tenants {
				var bar *progressbar.ProgressBar
				result, err := a.container.WarmingService.WarmTenant(cmd.Context(), tenantID, window, func(done, total int) {
					if bar == nil {
						bar = progressbar.NewOptions(total,
							progressbar.OptionSetWriter(a.stdout),
							progressbar.OptionSetDescription(tenantID.String()),
							progressbar.OptionShowCount())
					}
					_ = bar.Set(done)
				})
				if bar != nil {
					_ = bar.Finish()
					fmt.Fprintln(a.stdout)
				}
				if err != nil {
					failed++
					fmt.Fprintf(a.stdout, "%s✗ %s: %v%s\n", ansiRed, tenantID, err, ansiReset)
					continue
				}
				fmt.Fprintf(a.stdout, "%s✓ %s: %d snapshots for %s in %v%s\n",
					ansiGreen, tenantID, result.Written, window, result.Duration, ansiReset)
			}

			if failed > 0 {
				return fmt.Errorf("warming failed for %d of %d tenants", failed, len(tenants))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "number of trailing days ending today")
	cmd.Flags().StringVar(&start, "start", "", "first date (YYYY-MM-DD); overrides --days")
	cmd.Flags().StringVar(&end, "end", "", "last date (YYYY-MM-DD); defaults to --start")
	return cmd
}

// warmWindow resolves the dates to warm from either an explicit range or a
// trailing day count.
func warmWindow(today metrics.CalendarDate, days int, start, end string) (metrics.TimeWindow, error) {
	if start != "" || end != "" {
		req, err := services.ParseRequest(map[string][]string{"start": {start}, "end": {end}}, today)
		if err != nil {
			return metrics.TimeWindow{}, err
		}
		return req.Window, nil
	}
	if days <= 0 {
		return metrics.TimeWindow{}, fmt.Errorf("%w: --days must be positive", metrics.ErrInvalidWindow)
	}
	return metrics.TimeWindow{Start: metrics.ShiftDays(today, -(days - 1)), End: today}, nil
}
