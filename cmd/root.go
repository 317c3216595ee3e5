/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/academic-portal/apiserver/config"
	"github.com/academic-portal/apiserver/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Academic portal API server and tools",
	Long: `Academic portal backend: the HTTP API for students and courses,
database migrations, exports and a command-line client.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// loadRuntime reads the environment and builds the process logger.
func loadRuntime() (config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logger.New(cfg.LogLevel, cfg.IsDev()), nil
}
