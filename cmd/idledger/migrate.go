package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	ledgerpostgres "idledger/internal/ledger/store/postgres"
	"idledger/internal/platform/config"
	auditpostgres "idledger/pkg/platform/audit/store/postgres"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schemas for the ledger and audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return fmt.Errorf("no config found in context")
			}
			return migrateRun(cmd.Context(), cfg)
		},
	}
}

func migrateRun(ctx context.Context, cfg *config.Config) error {
	logger, err := commonRun(cfg)
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("postgres.dsn is required")
	}
	res := &resources{cfg: cfg, logger: logger}
	defer func() { _ = res.close() }()

	db, err := res.postgres(ctx)
	if err != nil {
		return err
	}
	if err := ledgerpostgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate ledger schema: %w", err)
	}
	if err := auditpostgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate audit schema: %w", err)
	}
	logger.InfoContext(ctx, "postgres schemas applied")
	return nil
}
