package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wellirecord/connect/app"
	"github.com/wellirecord/connect/config"
	"github.com/wellirecord/connect/internal/observability"
	"github.com/wellirecord/connect/repositories/postgres"
	"go.uber.org/zap"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create the schema and load the dataset into PostgreSQL",
		Long: `Loads DATA_FIXTURES_FILE (or the built-in demo dataset) into the database
named by DATABASE_URL or the DB_* variables. Existing rows with the same IDs
are updated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.New(ctx)
			if err != nil {
				return err
			}
			if cfg.Database == nil {
				return errors.New("no database configured: set DATABASE_URL or DB_HOST")
			}

			logger, err := observability.NewLogger(cfg.Observability.LogLevel, cfg.Observability.LogFormat)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			dbCfg := *cfg.Database
			dbCfg.InitSchema = true
			factory, err := postgres.NewRepositoryFactory(ctx, dbCfg, logger)
			if err != nil {
				return err
			}
			defer factory.Close()

			ds, err := app.LoadDataset(cfg.Data)
			if err != nil {
				return err
			}

			n, err := factory.Seeder().Seed(ctx, ds)
			if err != nil {
				return err
			}
			logger.Info("dataset seeded", zap.Int("rows", n))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d rows\n", n)
			return nil
		},
	})

	return cmd
}
