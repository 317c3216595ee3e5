/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/db"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		if err := requireSQLDriver(cfg); err != nil {
			return err
		}
		if err := db.Migrate(cmd.Context(), cfg.Database); err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		if err := requireSQLDriver(cfg); err != nil {
			return err
		}
		if err := db.MigrateDown(cmd.Context(), cfg.Database); err != nil {
			return fmt.Errorf("migrate down failed: %w", err)
		}
		log.Info().Str("driver", cfg.Database.Driver).Msg("migrations rolled back")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func requireSQLDriver(cfg config.Config) error {
	if cfg.Database.Driver == config.DriverBolt {
		return fmt.Errorf("driver %q has no schema to migrate", cfg.Database.Driver)
	}
	return nil
}
