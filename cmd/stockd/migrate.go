package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockservice/internal/config"
	"stockservice/internal/repos"
)

func newMigrateCmd(cfg *config.Config) *cobra.Command {
	var inspect bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := repos.Open(cfg.DBDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if inspect {
				plan, err := repos.MigrationPlan(db)
				if err != nil {
					return fmt.Errorf("inspect migrations: %w", err)
				}
				fmt.Fprintf(out, "Current version: %d\n", plan.CurrentVersion)
				fmt.Fprintf(out, "Available version: %d\n", plan.AvailableVersion)
				if len(plan.Pending) == 0 {
					fmt.Fprintln(out, "No pending migrations.")
					return nil
				}
				fmt.Fprintf(out, "Pending migrations: %d\n", len(plan.Pending))
				for _, m := range plan.Pending {
					fmt.Fprintf(out, "  %d: %s\n", m.Version, m.Description)
				}
				return nil
			}

			n, err := repos.Migrate(db)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(out, "Applied %d migration(s).\n", n)
			return nil
		},
	}

	cmd.Flags().BoolVar(&inspect, "inspect", false, "show migration status without applying")
	return cmd
}
