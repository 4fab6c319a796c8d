package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

var (
	askTenant string
	askThread string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question from the command line",
	Long: `Runs one question through the same answer chain the server uses.

Example:
  ekaya-assist ask --tenant acme "cuantas personas marcaron hoy"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		a, err := newApp(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.assistant.Ask(cmd.Context(), &models.QueryRequest{
			UserMessage: strings.Join(args, " "),
			TenantID:    askTenant,
			ThreadID:    askThread,
		})
		if err != nil {
			return err
		}
		if !resp.Success {
			return errors.New(resp.Error)
		}

		fmt.Fprintln(cmd.OutOrStdout(), resp.Response)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askTenant, "tenant", "", "tenant whose data is queried (required)")
	askCmd.Flags().StringVar(&askThread, "thread", "", "conversation thread to continue")
	_ = askCmd.MarkFlagRequired("tenant")
}
