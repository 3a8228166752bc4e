// Package cmd implements the CLI commands for retail-price-tracker.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/retail-price-tracker/internal/config"
	"github.com/donaldgifford/retail-price-tracker/pkg/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "retail-price-tracker",
	Short: "Track retail store prices and fire price alerts",
	Long: "An API-first service that scrapes product prices from configured retail stores, " +
		"normalizes them into a shared catalog, keeps price history, and notifies users " +
		"when their price alerts match.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.AddCommand(
		versionCommand(),
		serveCommand(),
		migrateCommand(),
		probeCommand(),
		scrapeCommand(),
		openapiCommand(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the root command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// loadConfig reads the config file and builds the process logger from it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	log := logger.New(logger.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.AddSource,
		Service:   "retail-price-tracker",
		Version:   Version,
	})
	slog.SetDefault(log)
	return cfg, log, nil
}
