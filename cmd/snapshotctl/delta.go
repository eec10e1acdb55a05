package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

func newDeltaCmd(a *app) *cobra.Command {
	var (
		metricNames   []string
		start, end    string
		align         string
		compare       string
		paymentMode   string
		salesChannels []string
		productIDs    []string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "delta TENANT",
		Short: "Compare KPIs of a window against the preceding window",
		Args:  cobra.ExactArgs(1),
		Example: `  snapshotctl delta ACME --start 2025-06-01
  snapshotctl delta ACME --metric total_sales --start 2025-06-01 --end 2025-06-07 --compare prev-range-avg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := map[string][]string{
				"metric":        metricNames,
				"start":         {start},
				"end":           {end},
				"align":         {align},
				"compare":       {compare},
				"payment_mode":  {paymentMode},
				"sales_channel": salesChannels,
				"product_id":    productIDs,
			}
			svc := a.container.DeltaService
			req, err := svc.ParseRequest(raw)
			if err != nil {
				return err
			}

			tenantID := metrics.NormalizeTenant(args[0])
			results, err := svc.ComputeDeltas(cmd.Context(), tenantID, req.Metrics, req.Window, req.Options)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}
			writeDeltaTable(a, tenantID, req.Window, results)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&metricNames, "metric", nil, "metrics to compare (default all)")
	cmd.Flags().StringVar(&start, "start", "", "first date (YYYY-MM-DD); defaults to today")
	cmd.Flags().StringVar(&end, "end", "", "last date (YYYY-MM-DD); defaults to --start")
	cmd.Flags().StringVar(&align, "align", "", "partial-day alignment: none or hour")
	cmd.Flags().StringVar(&compare, "compare", "", "comparison mode: contiguous or prev-range-avg")
	cmd.Flags().StringVar(&paymentMode, "payment-mode", "", "order filter: cod or prepaid")
	cmd.Flags().StringSliceVar(&salesChannels, "sales-channel", nil, "order filter by sales channel")
	cmd.Flags().StringSliceVar(&productIDs, "product-id", nil, "order filter by product")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	return cmd
}

func writeDeltaTable(a *app, tenantID metrics.TenantKey, window metrics.TimeWindow, results []metrics.DeltaResult) {
	fmt.Fprintf(a.stdout, "\n%s%s%s %s vs %s%s\n\n", ansiBold, ansiCyan, tenantID, window, metrics.PreviousWindow(window), ansiReset)
	fmt.Fprintf(a.stdout, "%s%-22s %14s %14s %14s %10s%s\n", ansiBold, "METRIC", "CURRENT", "PREVIOUS", "DIFF", "DIFF %", ansiReset)
	fmt.Fprintln(a.stdout, strings.Repeat("─", 78))
	for _, r := range results {
		color := ""
		switch r.Direction {
		case metrics.DirectionUp:
			color = ansiGreen
		case metrics.DirectionDown:
			color = ansiRed
		}
		fmt.Fprintf(a.stdout, "%-22s %14.2f %14.2f %s%14.2f %9.2f%%%s\n",
			r.Metric, r.Current, r.Previous, color, r.Diff, r.DiffPct, ansiReset)
	}
	fmt.Fprintln(a.stdout)
}
