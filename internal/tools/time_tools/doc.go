// Package time_tools provides MCP tools for ClickUp time tracking.
package time_tools
