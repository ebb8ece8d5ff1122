// Package doc_tools provides MCP tools for ClickUp Docs.
//
// Listing and searching go through the v3 docs API, which some plans do not expose; those
// tools then return an empty result instead of failing.
package doc_tools
