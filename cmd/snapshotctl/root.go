package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/AtRiskMedia/brandpulse-go/internal/application/container"
	"github.com/AtRiskMedia/brandpulse-go/internal/application/startup"
	"github.com/AtRiskMedia/brandpulse-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/brandpulse-go/pkg/config"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiGreen = "\033[32m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
)

// app carries state shared by every subcommand.
type app struct {
	stdout    io.Writer
	envFile   string
	verbose   bool
	container *container.Container
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	a := &app{stdout: stdout}

	cmd := &cobra.Command{
		Use:           "snapshotctl",
		Short:         "Warm and inspect brand KPI snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	cmd.PersistentFlags().StringVar(&a.envFile, "env", ".env", "optional .env file with configuration overrides")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "emit service logs")

	cmd.AddCommand(newWarmCmd(a))
	cmd.AddCommand(newDeltaCmd(a))
	cmd.AddCommand(newTenantsCmd(a))
	cmd.AddCommand(newInitDBCmd(a))
	return cmd
}

func (a *app) open() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	logger := logging.NewNopLogger()
	if a.verbose {
		if logger, err = startup.NewLogger(cfg); err != nil {
			return err
		}
	}

	a.container, err = startup.Build(cfg, logger)
	return err
}

func (a *app) close() {
	if a.container == nil {
		return
	}
	a.container.TenantManager.Close()
	a.container.SharedCache.Close()
	a.container.Logger.Close()
}
