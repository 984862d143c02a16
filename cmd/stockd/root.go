package main

import (
	"github.com/spf13/cobra"

	"stockservice/internal/config"
)

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		cfg     config.Config
	)

	cmd := &cobra.Command{
		Use:           "stockd",
		Short:         "stockd serves the stock catalogue REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgPath)
			return err
		},
	}
	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a .toml or .yaml config file")

	cmd.AddCommand(
		newServeCmd(&cfg),
		newMigrateCmd(&cfg),
	)
	return cmd
}
