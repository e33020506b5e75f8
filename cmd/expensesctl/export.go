package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/export/google"
	"expenses/internal/export/memory"
	"expenses/internal/services"
)

func newExportCommand(a *app) *cobra.Command {
	var (
		username string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Append a user's expenses and income to the configured spreadsheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var writer export.Writer
			if dryRun {
				writer = memory.New()
			} else {
				if !a.cfg.ExportConfigured() {
					return errors.New("export is not configured: set GOOGLE_SPREADSHEET_ID and a service account")
				}
				client, err := google.NewFromServiceAccount(cmd.Context(),
					a.cfg.GoogleSpreadsheetID,
					a.cfg.GoogleServiceAccountFile,
					a.cfg.GoogleServiceAccountJSON)
				if err != nil {
					return err
				}
				writer = client
			}

			res, err := services.NewExportService(a.store, writer, a.logger).ExportUser(cmd.Context(), username)
			if errors.Is(err, core.ErrNotFound) {
				return fmt.Errorf("user %q not found", username)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Expenses: %d rows", res.Expenses)
			if res.ExpenseRange != "" {
				fmt.Fprintf(out, " (%s)", res.ExpenseRange)
			}
			fmt.Fprintf(out, "\nIncome: %d rows", res.Incomes)
			if res.IncomeRange != "" {
				fmt.Fprintf(out, " (%s)", res.IncomeRange)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "user whose records are exported")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "build the rows without contacting the spreadsheet")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
