package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTenantsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "tenants",
		Short:   "List tenants in the registry",
		Aliases: []string{"ls"},
		RunE: func(*cobra.Command, []string) error {
			registry := a.container.TenantManager.Registry()
			ids := registry.TenantIDs("")
			if len(ids) == 0 {
				fmt.Fprintf(a.stdout, "No tenants registered in %s\n", a.container.Config.TenantRegistryPath)
				return nil
			}

			fmt.Fprintf(a.stdout, "%s%-16s %-10s %s%s\n", ansiBold, "TENANT", "STATUS", "DATABASE", ansiReset)
			for _, id := range ids {
				info, _ := registry.Lookup(id)
				fmt.Fprintf(a.stdout, "%-16s %-10s %s\n", id, info.Status, info.DatabaseType)
			}
			return nil
		},
	}
}
