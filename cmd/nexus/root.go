package main

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	envFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "nexus",
		Short:         "Threaded discussions for a social feed",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := godotenv.Load(opts.envFile)
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			initLogger(cmd.ErrOrStderr())

			if err != nil {
				slog.DebugContext(cmd.Context(), "env file not found", "path", opts.envFile)
			}

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "file to load environment variables from")

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())

	return cmd
}
