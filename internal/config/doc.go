// Package config loads the clickup-mcp configuration.
//
// Settings come from the first config file found (see SearchPaths) and are overridden by
// CLICKUP_MCP_* environment variables. Files may be JSON or YAML; the type follows the
// file extension.
package config
