package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/clickup-mcp/internal/config"
	"github.com/teemow/clickup-mcp/internal/logging"
)

func newSetAPIKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-api-key <key>",
		Short: "Store a ClickUp API key in the config file",
		Long: `Write the personal API token into the config file given by --config, or into
the default config location. Other settings in that file are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.SetAPIKey(configPath, args[0])
			if err != nil {
				return fmt.Errorf("failed to store API key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key %s saved to %s\n", logging.MaskAPIKey(args[0]), path)
			return nil
		},
	}
}
