package main

import (
	"log/slog"

	"github.com/nasermirzaei89/nexus"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := nexus.Migrate(cmd.Context(), true)
			if err != nil {
				return err
			}

			slog.InfoContext(cmd.Context(), "database migrated up")

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert all migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := nexus.Migrate(cmd.Context(), false)
			if err != nil {
				return err
			}

			slog.InfoContext(cmd.Context(), "database migrated down")

			return nil
		},
	})

	return cmd
}
