package main

import (
	"fmt"

	"github.com/nasermirzaei89/nexus"
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := nexus.NewApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to create app: %w", err)
			}

			return app.Run(cmd.Context())
		},
	}
}
