package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/startup"
)

func main() {
	var envFile string

	cmd := &cobra.Command{
		Use:           "brandpulse",
		Short:         "Serve per-brand KPI deltas over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return startup.Initialize(envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env", ".env", "optional .env file with configuration overrides")

	if err := cmd.Execute(); err != nil {
		log.Fatalf("Application startup failed: %v", err)
	}
	log.Println("Application has shut down gracefully.")
}
