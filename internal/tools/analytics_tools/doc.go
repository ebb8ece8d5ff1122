// Package analytics_tools exposes the reports of package analytics as MCP tools.
// Both tools read every list of a space, so they are slower than the other tools on large
// spaces.
package analytics_tools
