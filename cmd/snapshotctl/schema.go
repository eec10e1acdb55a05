package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/persistence/database"
)

func newInitDBCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db TENANT",
		Short: "Create the summary tables in a tenant database",
		Long: "Creates overall_summary, the hourly summaries and shopify_orders in the\n" +
			"tenant's database when they are missing. Existing tables are left untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenantID := metrics.NormalizeTenant(args[0])
			tc, err := a.container.TenantManager.GetContext(cmd.Context(), tenantID)
			if err != nil {
				return err
			}

			creator := database.NewTableCreator()
			if err := creator.CreateSchema(cmd.Context(), tc.Database.Conn); err != nil {
				fmt.Fprintf(a.stdout, "%s✗%s %s: %v\n", ansiRed, ansiReset, tenantID, err)
				return err
			}
			fmt.Fprintf(a.stdout, "%s✓%s %s (%s): %s\n", ansiGreen, ansiReset, tenantID,
				tc.GetDatabaseInfo(), strings.Join(creator.SummaryTables(), ", "))
			return nil
		},
	}
}
