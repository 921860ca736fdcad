package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"sorokinportal/internal/config"
	"sorokinportal/internal/database"
	"sorokinportal/internal/logging"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Sorokin Portal maintenance tool",
		Long: `portalctl manages a Sorokin Portal installation: database backups,
schema migrations and checks of the built-in course and pet catalog.

The database is selected with the same settings as the server
(DATABASE_TYPE, DB_PATH, DATABASE_URL or portal.yaml).`,
		SilenceUsage: true,
	}

	root.AddCommand(newBackupCmd(), newMigrateCmd(), newCatalogCmd())
	return root
}

// openDatabase connects with the server's configuration and brings the schema up to date
func openDatabase() (*database.DB, *logging.Logger, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	applied, err := db.RunMigrations()
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("Applied migrations", "files", applied)
	}

	return db, logger, nil
}
