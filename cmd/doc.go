// Package cmd implements the command-line interface for clickup-mcp.
//
// This package provides the following commands:
//   - serve: Start the MCP server over stdio or streamable HTTP
//   - check-config: Show the effective configuration with the API key masked
//   - test-connection: Verify the API key against ClickUp
//   - set-api-key: Store an API key in the config file
//   - config show / config path: Print the configuration as YAML, or where it lives
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The serve command is the default command when no subcommand is specified.
package cmd
