package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/config"
	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ekaya-assist",
	Short: "Natural-language assistant over tenant operational data",
	Long: `ekaya-assist answers questions in Spanish about projects, staff,
attendance and safety records of a tenant.

Questions go to a remote reasoning service when one is configured and
fall back to the built-in intent engine otherwise.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML configuration file")
	rootCmd.AddCommand(serveCmd, askCmd, migrateCmd)
}

// loadRuntime reads configuration and builds the logger every command uses.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
