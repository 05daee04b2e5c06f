package main

import (
	"database/sql"
	"fmt"
	"os"

	"learnquest/internal/config"
	"learnquest/internal/database"
	"learnquest/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	driver string
	dsn    string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or roll back the LearnQuest database schema",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.driver, "driver", "", "database driver (oracle, postgres, sqlite); defaults to db.driver")
	cmd.PersistentFlags().StringVar(&opts.dsn, "dsn", "", "connection string; defaults to the configured database")

	cmd.AddCommand(newUpCmd(opts), newDownCmd(opts), newVersionCmd(opts))
	return cmd
}

// open loads config, initialises the logger and opens the migration handle.
func (o *options) open() (string, *sql.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return "", nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		return "", nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if o.driver != "" {
		cfg.DB.Driver = o.driver
	}
	if o.dsn != "" {
		cfg.DB.DSN = o.dsn
	}
	if cfg.DB.Driver == database.DriverMemory {
		return "", nil, fmt.Errorf("the memory driver has no schema to migrate")
	}

	db, err := database.OpenMigrationDB(cfg.DB.Driver, cfg.GetDSN())
	if err != nil {
		return "", nil, err
	}
	return cfg.DB.Driver, db, nil
}

func newUpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			defer logger.Sync()
			return database.RunMigrations(driver, db)
		},
	}
}

func newDownCmd(opts *options) *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			defer logger.Sync()
			if err := database.RollbackMigrations(driver, db, steps); err != nil {
				return err
			}
			logger.Get().Info("Rollback completed", zap.String("driver", driver), zap.Int("steps", steps))
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back, 0 for all")
	return cmd
}

func newVersionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, db, err := opts.open()
			if err != nil {
				return err
			}
			defer db.Close()
			version, dirty, err := database.MigrationVersion(driver, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", version, dirty)
			return nil
		},
	}
}
