package analytics_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/analytics"
	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

const defaultPeriodDays = 30

var now = time.Now

// RegisterAnalyticsTools registers the workload and analytics tools.
func RegisterAnalyticsTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	workloadTool := mcp.NewTool("get_team_workload",
		mcp.WithDescription("Show how the tasks of a space are distributed over assignees"),
		mcp.WithString("space_id",
			mcp.Required(),
			mcp.Description("Space ID"),
		),
		mcp.WithBoolean("include_completed", mcp.Description("Count closed tasks too (default: false)")),
	)
	s.AddTool(workloadTool, common.InstrumentedToolHandlerWithTarget(
		"get_team_workload", instrumentation.ResourceSpace, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTeamWorkload(ctx, request, sc)
		}))

	analyticsTool := mcp.NewTool("get_task_analytics",
		mcp.WithDescription("Report created and completed tasks, completion rate and completion time for a space over a period"),
		mcp.WithString("space_id",
			mcp.Required(),
			mcp.Description("Space ID"),
		),
		mcp.WithNumber("period_days", mcp.Description("Length of the period in days, ending now (default: 30)")),
	)
	s.AddTool(analyticsTool, common.InstrumentedToolHandlerWithTarget(
		"get_task_analytics", instrumentation.ResourceSpace, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTaskAnalytics(ctx, request, sc)
		}))

	return nil
}

func handleGetTeamWorkload(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	spaceID, err := common.RequiredString(args, "space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tasks, err := sc.Client().GetTasks(ctx, clickup.TaskFilter{
		SpaceID:       spaceID,
		IncludeClosed: common.BoolArg(args, "include_completed", false),
		Subtasks:      true,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.JSONResult(struct {
		SpaceID string `json:"space_id"`
		analytics.WorkloadReport
	}{spaceID, analytics.Workload(tasks)})
}

func handleGetTaskAnalytics(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	spaceID, err := common.RequiredString(args, "space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := common.IntArg(args, "period_days", defaultPeriodDays)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if days <= 0 {
		return mcp.NewToolResultError("period_days must be positive"), nil
	}

	tasks, err := sc.Client().GetTasks(ctx, clickup.TaskFilter{
		SpaceID:       spaceID,
		IncludeClosed: true,
		Subtasks:      true,
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	report, err := analytics.TaskAnalytics(tasks, now(), days)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.JSONResult(struct {
		SpaceID string `json:"space_id"`
		analytics.Report
	}{spaceID, report})
}
