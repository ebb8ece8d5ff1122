package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/config"
	"github.com/teemow/clickup-mcp/internal/server"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func runGenerateDocs(outputFile string) error {
	// Doc generation never calls ClickUp, so a placeholder key is enough
	cfg := &config.Config{
		APIKey:     "docs-placeholder",
		IDPatterns: config.DefaultIDPatterns(),
		Timeout:    config.DefaultTimeout,
	}
	client, err := clickup.NewClient(cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create ClickUp client: %w", err)
	}

	ctx := context.Background()
	serverContext, err := server.NewServerContext(ctx, cfg, client)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := newMCPServer()

	// Register everything, including write operations
	if err := registerAllTools(mcpSrv, serverContext, false); err != nil {
		return err
	}

	// A read-only registration tells the write tools apart
	readOnlySrv := newMCPServer()
	if err := registerAllTools(readOnlySrv, serverContext, true); err != nil {
		return err
	}
	readOnlyTools := readOnlySrv.ListTools()

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	writeTools := make(map[string]bool)
	for name, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
		if _, ok := readOnlyTools[name]; !ok {
			writeTools[name] = true
		}
	}

	markdown := generateToolsMarkdown(tools, writeTools)

	// Write to output
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
	} else {
		fmt.Print(markdown)
	}

	return nil
}

func generateToolsMarkdown(tools []mcp.Tool, writeTools map[string]bool) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running clickup-mcp as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Group tools by category
	toolsByCategory := groupToolsByCategory(tools)

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	// Task reference note
	sb.WriteString("## Task References\n\n")
	sb.WriteString("Every `task_id` argument accepts any of these forms:\n\n")
	sb.WriteString("- **Internal ID:** `86c2x9k1p` or `#86c2x9k1p`\n")
	sb.WriteString("- **Custom ID:** `GH-3761`, for prefixes listed in `id_patterns`\n")
	sb.WriteString("- **Task URL:** `https://app.clickup.com/t/3647378/GH-3761`\n\n")
	sb.WriteString("Tools marked as write operations are not registered with `--read-only`.\n\n")

	// Generate documentation for each category
	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool, writeTools[tool.Name]))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

// toolCategories maps tool names to their documentation section.
var toolCategories = map[string]string{
	"list_spaces":        "Workspace Tools",
	"list_folders":       "Workspace Tools",
	"list_lists":         "Workspace Tools",
	"find_list_by_name":  "Workspace Tools",
	"list_users":         "User Tools",
	"get_current_user":   "User Tools",
	"find_user_by_name":  "User Tools",
	"get_time_tracked":   "Time Tracking Tools",
	"log_time":           "Time Tracking Tools",
	"get_team_workload":  "Analytics Tools",
	"get_task_analytics": "Analytics Tools",
	"bulk_update_tasks":  "Bulk Tools",
	"bulk_move_tasks":    "Bulk Tools",
}

func getCategoryFromToolName(name string) string {
	if category, ok := toolCategories[name]; ok {
		return category
	}

	switch {
	case strings.HasSuffix(name, "_doc"), strings.HasSuffix(name, "_docs"):
		return "Doc Tools"
	case strings.Contains(name, "comment"):
		return "Comment Tools"
	case strings.Contains(name, "template"), strings.Contains(name, "chain"):
		return "Template Tools"
	case strings.Contains(name, "task"), strings.Contains(name, "assign"), name == "get_subtasks":
		return "Task Tools"
	default:
		return "Other"
	}
}

func generateToolMarkdown(tool mcp.Tool, write bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "### %s\n\n", tool.Name)
	if write {
		sb.WriteString("_Write operation, not registered with `--read-only`._\n\n")
	}
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		sb.WriteString("No arguments.\n")
		return sb.String()
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	// Required arguments first, then alphabetical
	sort.Slice(names, func(i, j int) bool {
		ri := slices.Contains(tool.InputSchema.Required, names[i])
		rj := slices.Contains(tool.InputSchema.Required, names[j])
		if ri != rj {
			return ri
		}
		return names[i] < names[j]
	})

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("| --- | --- | --- | --- |\n")
	for _, name := range names {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}
		required := "no"
		if slices.Contains(tool.InputSchema.Required, name) {
			required = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", name, propertyType(prop), required, propertyDescription(prop))
	}

	return sb.String()
}

func propertyType(prop map[string]any) string {
	t, ok := prop["type"].(string)
	if !ok {
		return "any"
	}
	if t == "array" {
		if items, ok := prop["items"].(map[string]any); ok {
			if it, ok := items["type"].(string); ok {
				return it + "[]"
			}
		}
	}
	return t
}

// propertyDescription renders the description with enum values and the default appended.
// Pipes are escaped so the table stays intact.
func propertyDescription(prop map[string]any) string {
	desc, _ := prop["description"].(string)
	parts := []string{strings.TrimSpace(desc)}

	switch enum := prop["enum"].(type) {
	case []string:
		parts = append(parts, "One of: `"+strings.Join(enum, "`, `")+"`.")
	case []any:
		values := make([]string, 0, len(enum))
		for _, v := range enum {
			values = append(values, fmt.Sprint(v))
		}
		parts = append(parts, "One of: `"+strings.Join(values, "`, `")+"`.")
	}
	if def, ok := prop["default"]; ok {
		parts = append(parts, fmt.Sprintf("Default: `%v`.", def))
	}

	out := strings.TrimSpace(strings.Join(parts, " "))
	out = strings.ReplaceAll(out, "\n", " ")
	return strings.ReplaceAll(out, "|", "\\|")
}
