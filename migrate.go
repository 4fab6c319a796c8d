package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-assist/pkg/database"
	"github.com/ekaya-inc/ekaya-assist/pkg/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply chat history migrations to the PostgreSQL database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		url := cfg.Database.ConnectionString()
		logger.Info("Running migrations", zap.String("database", logging.SanitizeConnectionString(url)))
		return database.OpenAndMigrate(url, logger)
	},
}
