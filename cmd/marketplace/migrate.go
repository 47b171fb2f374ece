package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wenwu/saas-platform/marketplace-service/internal/config"
	"github.com/wenwu/saas-platform/marketplace-service/internal/db"
	"github.com/wenwu/saas-platform/marketplace-service/internal/logging"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the purchase schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger, err := logging.New(cfg.Server.Mode)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return migrateUp(&cfg.Database, logger)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			m, err := db.NewMigrator(&cfg.Database)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Down(); err != nil {
				return fmt.Errorf("migrate down: %w", err)
			}
			return printVersion(cmd, m)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			m, err := db.NewMigrator(&cfg.Database)
			if err != nil {
				return err
			}
			defer m.Close()
			return printVersion(cmd, m)
		},
	})

	return cmd
}

func migrateUp(cfg *config.DatabaseConfig, logger *zap.Logger) error {
	m, err := db.NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("database migrated", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func printVersion(cmd *cobra.Command, m *db.Migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	cmd.Printf("schema version %d (dirty: %t)\n", version, dirty)
	return nil
}
