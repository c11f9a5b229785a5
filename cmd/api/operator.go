package main

import (
	"errors"
	"fmt"
	"os"

	pgStorage "storefront-payments/internal/adapter/storage/postgres"
	"storefront-payments/internal/service"
	"storefront-payments/pkg/logger"

	"github.com/spf13/cobra"
)

const operatorPasswordEnv = "SPS_OPERATOR_PASSWORD"

func newOperatorCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Manage back-office operators",
	}
	cmd.AddCommand(newOperatorCreateCmd(load))
	return cmd
}

func newOperatorCreateCmd(load configLoader) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an operator; the password is read from " + operatorPasswordEnv,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password := os.Getenv(operatorPasswordEnv)
			if password == "" {
				return errors.New(operatorPasswordEnv + " must be set")
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

			authSvc := service.NewAuthService(
				pgStorage.NewOperatorRepo(pool),
				service.NewArgon2HashService(),
				service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer),
			)
			op, err := authSvc.CreateOperator(cmd.Context(), username, password)
			if err != nil {
				return err
			}

			log.Info().Str("operator_id", op.ID.String()).Str("username", op.Username).Msg("operator created")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "operator username")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}
