package main

import (
	"os"

	"github.com/spf13/cobra"
)

// -----------------------------------------------------------------------------

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// -----------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "dashboard",
		Short:        "Investment dashboard aggregation service",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "config/default.yaml", "path to config file")
	cmd.AddCommand(serveCmd(&configPath), viewCmd(&configPath))
	return cmd
}
