// Package cli implements the donation-flow command line: the HTTP service and
// offline helpers over the same stores.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"donation-flow/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "donation-flow",
	Short: "Donation wizard service",
	Long: `donation-flow hosts donation sessions for the donation modal: mission
selection, amount, distribution across missions and submission. Completed
donations are kept in a durable history that can be searched by donor name
and contact.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "donation-flow.toml", "Path to the TOML config file")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// cliLogger writes warnings and errors to stderr for one-shot commands.
func cliLogger() *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelWarn,
		TimeFormat: "15:04:05",
	}))
}
