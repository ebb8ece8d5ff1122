package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the clickup-mcp application
var rootCmd = &cobra.Command{
	Use:   "clickup-mcp",
	Short: "MCP server for the ClickUp API",
	Long: `clickup-mcp exposes ClickUp workspaces, tasks, docs, comments and time
tracking as MCP (Model Context Protocol) tools for AI assistants.

Task references can be given as internal IDs (abc123, #abc123), custom IDs
(GH-3761) or ClickUp task URLs.

It can run as:
  - An MCP server over stdio (default)
  - An MCP server over streamable HTTP`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// configPath is the --config flag shared by every command.
var configPath string

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "clickup-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: first of the standard locations)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCheckConfigCmd())
	rootCmd.AddCommand(newTestConnectionCmd())
	rootCmd.AddCommand(newSetAPIKeyCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
