package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// app is the state shared by every subcommand once the root has loaded
// configuration and opened the store.
type app struct {
	in     io.Reader
	cfg    *config.Config
	logger *log.Logger
	store  *storage.Store
}

// run executes the command line in args and closes the store afterwards,
// whether or not the command succeeded.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{in: in}
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	defer a.close()
	return cmd.ExecuteContext(ctx)
}

// rootCommand creates the root CLI command with all subcommands registered.
func (a *app) rootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "expensesctl",
		Short: "Administer the expenses database",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return a.open(cmd, envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional env file to load")

	rootCmd.AddCommand(
		newMigrateCommand(a),
		newCategoryCommand(a),
		newUserCommand(a),
		newExportCommand(a),
		newSessionCommand(a),
	)
	return rootCmd
}

func (a *app) open(cmd *cobra.Command, envFile string) error {
	cli.LoadEnvFile(envFile)
	cfg, err := cli.LoadDatabaseConfig()
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = log.New(log.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: log.ComponentCLI,
		Output:    cmd.ErrOrStderr(),
	})
	cmd.SetContext(log.NewContext(cmd.Context(), a.logger))
	a.logger.Debug("Opening database", "driver", cfg.DBDriver)

	a.store, err = storage.Open(cmd.Context(), a.storeOptions())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	return nil
}

func (a *app) storeOptions() storage.Options {
	return storage.Options{
		Driver:      a.cfg.DBDriver,
		SQLitePath:  a.cfg.SQLiteDBPath,
		DatabaseURL: a.cfg.DatabaseURL,
	}
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Open has applied pending migrations already; this run confirms
			// nothing is left.
			if err := storage.RunMigrations(a.cfg.DBDriver, a.storeOptions().DSN()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database is up to date (%s)\n", a.store.Driver())
			return nil
		},
	}
}
