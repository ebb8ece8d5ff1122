package task_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

func registerStatusTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getStatusTool := mcp.NewTool("get_task_status",
		mcp.WithDescription("Get the status of a task and whether it is closed"),
		taskIDParam(),
	)
	s.AddTool(getStatusTool, common.InstrumentedToolHandlerWithTarget(
		"get_task_status", instrumentation.ResourceTask, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTaskStatus(ctx, request, sc)
		}))

	getAssigneesTool := mcp.NewTool("get_assignees",
		mcp.WithDescription("Get the users assigned to a task"),
		taskIDParam(),
	)
	s.AddTool(getAssigneesTool, common.InstrumentedToolHandlerWithTarget(
		"get_assignees", instrumentation.ResourceTask, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAssignees(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	updateStatusTool := mcp.NewTool("update_task_status",
		mcp.WithDescription("Set the status of a task"),
		taskIDParam(),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status, as configured on the task's list (e.g. 'in progress')"),
		),
	)
	s.AddTool(updateStatusTool, common.InstrumentedToolHandlerWithTarget(
		"update_task_status", instrumentation.ResourceTask, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateTaskStatus(ctx, request, sc)
		}))

	assignTaskTool := mcp.NewTool("assign_task",
		mcp.WithDescription("Add or remove assignees of a task"),
		taskIDParam(),
		mcp.WithArray("user_ids",
			mcp.Description("User IDs to assign"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
		mcp.WithArray("remove_user_ids",
			mcp.Description("User IDs to unassign"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	)
	s.AddTool(assignTaskTool, common.InstrumentedToolHandlerWithTarget(
		"assign_task", instrumentation.ResourceTask, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAssignTask(ctx, request, sc)
		}))

	return nil
}

type statusView struct {
	TaskID   string `json:"task_id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Type     string `json:"type,omitempty"`
	Color    string `json:"color,omitempty"`
	Closed   bool   `json:"closed"`
	Previous string `json:"previous_status,omitempty"`
}

func newStatusView(t *clickup.Task) statusView {
	return statusView{
		TaskID: t.ID,
		Name:   t.Name,
		Status: t.Status.Status,
		Type:   t.Status.Type,
		Color:  t.Status.Color,
		Closed: t.Status.Closed(),
	}
}

func handleGetTaskStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	task, err := common.ResolveTaskArg(ctx, sc, request.GetArguments(), false)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(newStatusView(task))
}

func handleUpdateTaskStatus(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	status, err := common.RequiredString(args, "status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	updated, err := sc.Client().UpdateTask(ctx, task.ID, clickup.UpdateTaskRequest{Status: &status})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	view := newStatusView(updated)
	view.Previous = task.Status.Status
	return common.JSONResult(view)
}

func handleGetAssignees(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	task, err := common.ResolveTaskArg(ctx, sc, request.GetArguments(), false)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"task_id":   task.ID,
		"assignees": userRefs(task.Assignees),
		"count":     len(task.Assignees),
	})
}

func handleAssignTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	add, err := common.Int64ListArg(args, "user_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	remove, err := common.Int64ListArg(args, "remove_user_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(add) == 0 && len(remove) == 0 {
		return mcp.NewToolResultError("user_ids or remove_user_ids is required"), nil
	}

	task, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	updated, err := sc.Client().UpdateTask(ctx, task.ID, clickup.UpdateTaskRequest{
		Assignees: &clickup.AssigneeChanges{Add: add, Remove: remove},
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"task_id":   updated.ID,
		"assignees": userRefs(updated.Assignees),
		"added":     len(add),
		"removed":   len(remove),
	})
}
