package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/clickup-mcp/internal/config"
)

func newCheckConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print a summary",
		Long: `Load the configuration the same way serve does and print the settings
that will be used. The API key is masked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated(configPath)
			if err != nil {
				return err
			}
			printConfigSummary(cmd.OutOrStdout(), cfg)

			if err := cfg.Validate(); err != nil {
				if errors.Is(err, config.ErrMissingAPIKey) || errors.Is(err, config.ErrInvalidAPIKey) {
					fmt.Fprintln(cmd.OutOrStdout(), "\nRun `clickup-mcp set-api-key <key>` to store a key.")
				}
				return fmt.Errorf("configuration is invalid: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "\nConfiguration OK")
			return nil
		},
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	redacted := cfg.Redacted()

	source := cfg.Source
	if source == "" {
		source = "none (environment only)"
	}
	apiKey := redacted.APIKey
	if apiKey == "" {
		apiKey = "(not set)"
	}

	fmt.Fprintf(w, "Config file:          %s\n", source)
	fmt.Fprintf(w, "API key:              %s\n", apiKey)
	fmt.Fprintf(w, "Default workspace:    %s\n", orNone(cfg.DefaultWorkspaceID))
	fmt.Fprintf(w, "Default team:         %s\n", orNone(cfg.DefaultTeamID))
	fmt.Fprintf(w, "Custom ID scope:      %s\n", orNone(cfg.ScopeID()))
	fmt.Fprintf(w, "ID patterns:          %s\n", orNone(strings.Join(sortedPatterns(cfg.IDPatterns), ", ")))
	fmt.Fprintf(w, "Strict search match:  %t\n", cfg.StrictSearchMatch)
	fmt.Fprintf(w, "Cache TTL:            %s\n", cfg.CacheDuration())
	fmt.Fprintf(w, "Rate limit:           %d requests/minute\n", cfg.RateLimit)
	fmt.Fprintf(w, "Timeout:              %s\n", cfg.Timeout)
	if cfg.BaseURL != "" {
		fmt.Fprintf(w, "Base URL:             %s\n", cfg.BaseURL)
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
