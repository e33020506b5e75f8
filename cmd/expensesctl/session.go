package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expenses/internal/worker"
)

func newSessionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Maintain login sessions",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired login sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := worker.NewSweeper(a.store, a.logger).SweepSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired sessions\n", n)
			return nil
		},
	})
	return cmd
}
