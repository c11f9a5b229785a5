package main

import (
	"fmt"

	pgStorage "storefront-payments/internal/adapter/storage/postgres"
	"storefront-payments/pkg/logger"

	"github.com/spf13/cobra"
)

func newMigrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply, roll back or inspect the embedded SQL migrations",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := "up"
			if len(args) == 1 {
				direction = args[0]
			}

			cfg, err := load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

			pool, err := pgStorage.NewPool(cmd.Context(), cfg.Database, log)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			switch direction {
			case "down":
				err = pgStorage.MigrateDown(cmd.Context(), pool)
			case "status":
				err = pgStorage.MigrationStatus(cmd.Context(), pool)
			default:
				err = pgStorage.Migrate(cmd.Context(), pool)
			}
			if err != nil {
				return err
			}

			log.Info().Str("direction", direction).Msg("migrations done")
			return nil
		},
	}
}
