package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/config"
)

func newTestConnectionCmd() *cobra.Command {
	var debugMode bool

	cmd := &cobra.Command{
		Use:   "test-connection",
		Short: "Verify the API key against ClickUp",
		Long: `Load the configuration, fetch the authenticated user and list the
workspaces the API key can access.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			client, err := newClickUpClient(cfg, newLogger(debugMode), nil)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*cfg.Timeout)
			defer cancel()
			return testConnection(ctx, cmd.OutOrStdout(), client, cfg.DefaultWorkspaceID)
		},
	}

	cmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	return cmd
}

func testConnection(ctx context.Context, w io.Writer, client *clickup.Client, defaultWorkspace string) error {
	start := time.Now()
	user, err := client.GetCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintf(w, "Authenticated as %s (%s) in %s\n",
		user.Username, user.Email, time.Since(start).Round(time.Millisecond))

	workspaces, err := client.GetWorkspaces(ctx)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	fmt.Fprintf(w, "Workspaces (%d):\n", len(workspaces))
	for _, ws := range workspaces {
		marker := ""
		if ws.ID == defaultWorkspace {
			marker = " [default]"
		}
		fmt.Fprintf(w, "  %s  %s (%d members)%s\n", ws.ID, ws.Name, len(ws.Members), marker)
	}
	return nil
}
