package task_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/batch"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

func taskIDsParam(description string) mcp.ToolOption {
	return mcp.WithArray("task_ids",
		mcp.Required(),
		mcp.Description(description+". Accepts an array, a JSON array string or a comma-separated string"),
		mcp.Items(map[string]any{"type": "string"}),
	)
}

func registerBulkTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	bulkUpdateTool := mcp.NewTool("bulk_update_tasks",
		mcp.WithDescription("Apply the same update to several tasks. Each task is resolved and updated on its own; failures do not stop the batch"),
		taskIDsParam("Task references to update"),
		mcp.WithObject("updates",
			mcp.Description("Fields to apply: status, priority, due_date, assignees_add, assignees_remove. The same fields may also be given at the top level"),
		),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithNumber("priority", mcp.Description("New priority: 1 urgent, 2 high, 3 normal, 4 low")),
		mcp.WithArray("assignees_add",
			mcp.Description("User IDs to add as assignees"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
		mcp.WithArray("assignees_remove",
			mcp.Description("User IDs to remove as assignees"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	)
	s.AddTool(bulkUpdateTool, common.InstrumentedToolHandlerWithTarget(
		"bulk_update_tasks", instrumentation.ResourceTask, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBulkUpdateTasks(ctx, request, sc)
		}))

	bulkMoveTool := mcp.NewTool("bulk_move_tasks",
		mcp.WithDescription("Move several tasks to another list"),
		taskIDsParam("Task references to move"),
		mcp.WithString("target_list_id",
			mcp.Required(),
			mcp.Description("ID of the destination list"),
		),
	)
	s.AddTool(bulkMoveTool, common.InstrumentedToolHandlerWithTarget(
		"bulk_move_tasks", instrumentation.ResourceTask, instrumentation.OperationMove, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBulkMoveTasks(ctx, request, sc)
		}))

	return nil
}

// updateFields merges the "updates" object over the top-level update arguments.
func updateFields(args map[string]any) map[string]any {
	fields := make(map[string]any)
	for _, key := range []string{"status", "priority", "due_date", "time_estimate", "assignees_add", "assignees_remove"} {
		if v, ok := args[key]; ok {
			fields[key] = v
		}
	}
	if updates, ok := args["updates"].(map[string]any); ok {
		for k, v := range updates {
			fields[k] = v
		}
	}
	return fields
}

func handleBulkUpdateTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	refs, err := batch.ParseList(args["task_ids"], "task_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req, err := buildUpdate(updateFields(args))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.IsEmpty() {
		return mcp.NewToolResultError("no fields to update"), nil
	}

	results := batch.ProcessBatch(ctx, refs, func(ctx context.Context, ref string) (string, error) {
		task, err := sc.ResolveTask(ctx, ref, false)
		if err != nil {
			return "", err
		}
		if _, err := sc.Client().UpdateTask(ctx, task.ID, req); err != nil {
			return "", err
		}
		return fmt.Sprintf("updated %s", task.ID), nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleBulkMoveTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	refs, err := batch.ParseList(args["task_ids"], "task_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listID, err := common.RequiredString(args, "target_list_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ctx, refs, func(ctx context.Context, ref string) (string, error) {
		task, err := sc.ResolveTask(ctx, ref, false)
		if err != nil {
			return "", err
		}
		if _, err := sc.Client().MoveTask(ctx, task.ID, listID); err != nil {
			return "", err
		}
		return fmt.Sprintf("moved %s to list %s", task.ID, listID), nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
