package task_tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

const taskIDDescription = "Task ID, custom task ID (e.g. gh-123) or task URL"

// RegisterTaskTools registers all task tools with the MCP server. Tools that change data
// are skipped in read-only mode.
func RegisterTaskTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := registerCRUDTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register task CRUD tools: %w", err)
	}
	if err := registerCommentTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register comment tools: %w", err)
	}
	if err := registerStatusTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register status tools: %w", err)
	}
	if readOnly {
		return nil
	}
	if err := registerBulkTools(s, sc); err != nil {
		return fmt.Errorf("failed to register bulk tools: %w", err)
	}
	if err := registerTemplateTools(s, sc); err != nil {
		return fmt.Errorf("failed to register template tools: %w", err)
	}
	return nil
}

func taskIDParam() mcp.ToolOption {
	return mcp.WithString("task_id",
		mcp.Required(),
		mcp.Description(taskIDDescription),
	)
}

func listParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("list_id",
			mcp.Description("ID of the list"),
		),
		mcp.WithString("list_name",
			mcp.Description("Name of the list (alternative to list_id, matched case-insensitively)"),
		),
		mcp.WithString("space_id",
			mcp.Description("Restrict the list_name lookup to this space"),
		),
	}
}

// resolveListID returns list_id, or looks up list_name in the workspace.
func resolveListID(ctx context.Context, sc *server.ServerContext, args map[string]any) (string, error) {
	if id := common.StringArg(args, "list_id"); id != "" {
		return id, nil
	}
	name := common.StringArg(args, "list_name")
	if name == "" {
		return "", fmt.Errorf("either list_id or list_name is required")
	}

	list, err := sc.Client().FindListByName(ctx, name, common.StringArg(args, "space_id"), common.StringArg(args, "workspace_id"))
	if err != nil {
		return "", err
	}
	if list == nil {
		return "", fmt.Errorf("list %q not found", name)
	}
	return list.ID, nil
}

// priorityArg accepts 1-4 or a priority name. ok is false when the argument is absent.
func priorityArg(args map[string]any, key string) (p clickup.Priority, ok bool, err error) {
	raw, present := args[key]
	if !present || raw == nil {
		return clickup.PriorityNone, false, nil
	}

	var s string
	switch v := raw.(type) {
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		if v == "" {
			return clickup.PriorityNone, false, nil
		}
		s = v
	default:
		return clickup.PriorityNone, false, fmt.Errorf("%s must be 1-4 or urgent, high, normal, low", key)
	}

	p, err = clickup.ParsePriority(s)
	if err != nil {
		return clickup.PriorityNone, false, fmt.Errorf("%s must be 1-4 or urgent, high, normal, low", key)
	}
	return p, true, nil
}

// buildUpdate reads the update fields shared by update_task and bulk_update_tasks.
func buildUpdate(fields map[string]any) (clickup.UpdateTaskRequest, error) {
	var req clickup.UpdateTaskRequest

	if name := common.StringArg(fields, "name"); name != "" {
		req.Name = &name
	}
	req.Description = common.OptionalString(fields, "description")
	if status := common.StringArg(fields, "status"); status != "" {
		req.Status = &status
	}

	p, ok, err := priorityArg(fields, "priority")
	if err != nil {
		return req, err
	}
	if ok {
		level := int(p)
		req.Priority = &level
	}

	if due := common.StringArg(fields, "due_date"); due != "" {
		ms, err := clickup.ParseDate(due)
		if err != nil {
			return req, err
		}
		req.DueDate = &ms
	}
	if estimate := common.StringArg(fields, "time_estimate"); estimate != "" {
		ms, err := clickup.ParseDuration(estimate)
		if err != nil {
			return req, err
		}
		req.TimeEstimate = &ms
	}

	add, err := common.Int64ListArg(fields, "assignees_add")
	if err != nil {
		return req, err
	}
	remove, err := common.Int64ListArg(fields, "assignees_remove")
	if err != nil {
		return req, err
	}
	if len(add) > 0 || len(remove) > 0 {
		req.Assignees = &clickup.AssigneeChanges{Add: add, Remove: remove}
	}

	return req, nil
}

// taskResult is a task summary with the outcome flag of a write tool.
type taskResult struct {
	common.TaskSummary
	Created bool `json:"created,omitempty"`
	Updated bool `json:"updated,omitempty"`
}
