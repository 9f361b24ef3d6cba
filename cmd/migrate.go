package cmd

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/opentna/internal"
	"github.com/frahmantamala/opentna/internal/storage"
	"github.com/frahmantamala/opentna/pkg/logger"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files under db/migrations directory",
		Long: `Applies the SQL migrations under db/migrations with goose on PostgreSQL.
MySQL and SQLite schemas are derived from the data models instead.`,
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, err := storage.Open(cfg.Database, lg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	defer sqlDB.Close()

	if cfg.Database.GetDriver() != internal.DriverPostgres {
		if migrateRollback {
			return fmt.Errorf("rollback is only supported for %s", internal.DriverPostgres)
		}
		if err := storage.AutoMigrate(db); err != nil {
			return err
		}
		lg.Info("schema migrated from data models", "driver", cfg.Database.GetDriver())
		return nil
	}

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: %w", err)
	}
	goose.SetTableName("schema_migrations")

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, sqlDB, migrateDir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	lg.Info("migrations applied", "command", command, "dir", migrateDir)
	return nil
}
