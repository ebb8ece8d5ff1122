// Package workspace_tools provides MCP tools for browsing the ClickUp hierarchy
// (spaces, folders and lists) and the members of a workspace.
//
// All tools here are read-only and are registered in every mode.
package workspace_tools
