package cmd

import (
	"fmt"

	"github.com/gatherpoint/server/internal/config"
	"github.com/gatherpoint/server/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewLogger(cfg.Logging)
		if err := postgres.MigrateUp(cfg.Database.URL, migrationsPath); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		logger.Info().Msg("migrations applied")
		return nil
	},
}

var migrateDownSteps int

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}

		logger := config.NewLogger(cfg.Logging)
		if err := postgres.MigrateDown(cfg.Database.URL, migrationsPath, migrateDownSteps); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		logger.Info().Int("steps", migrateDownSteps).Msg("migrations rolled back")
		return nil
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", postgres.DefaultMigrationsPath, "migrations directory")
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}
