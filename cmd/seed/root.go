package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"cityscope/internal/district/store"
	"cityscope/internal/district/store/seed"
	"cityscope/internal/platform/config"
	"cityscope/internal/platform/logger"
	"cityscope/internal/platform/postgres"
	"cityscope/migrations"
)

type seedOptions struct {
	migrate     bool
	truncate    bool
	deriveCodes bool
}

func newRootCmd() *cobra.Command {
	var opts seedOptions
	cmd := &cobra.Command{
		Use:   "cityscope-seed",
		Short: "Load the bundled Warsaw districts into PostgreSQL",
		Long: `cityscope-seed inserts the bundled district catalog and its metric rows
into the database configured by the POSTGRES_* variables (or the env file).

Examples:
  cityscope-seed --migrate
  cityscope-seed --truncate --derive-codes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "Apply the schema before seeding")
	cmd.Flags().BoolVar(&opts.truncate, "truncate", false, "Empty the catalog before seeding")
	cmd.Flags().BoolVar(&opts.deriveCodes, "derive-codes", false, "Recompute every code from its name instead of the stored one")
	return cmd
}

func runSeed(ctx context.Context, opts seedOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.Environment, cfg.Server.LogLevel)
	if !cfg.Database.Enabled() {
		return errors.New("POSTGRES_HOST is not set")
	}

	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if opts.migrate {
		if err := migrations.Apply(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema applied")
	}

	records, err := seed.Load()
	if err != nil {
		return err
	}

	pg := store.NewPostgres(db)
	var inserted int
	err = pg.RunInTx(ctx, func(ctx context.Context) error {
		if opts.truncate {
			if err := pg.Truncate(ctx); err != nil {
				return err
			}
		}
		inserted, err = insertRecords(ctx, pg, records, opts.deriveCodes, log)
		return err
	})
	if err != nil {
		return err
	}
	log.Info("catalog seeded", "districts", inserted, "derived_codes", opts.deriveCodes)
	return nil
}
