// Package resources provides read-only MCP resources describing the ClickUp account the
// server runs as: the user profile, the accessible workspaces and the custom task ID
// prefixes the resolver understands.
package resources
