package time_tools

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

// defaultPeriod is the look-back window of get_time_tracked without a start date.
const defaultPeriod = 7 * 24 * time.Hour

var now = time.Now

// RegisterTimeTools registers the time tracking tools. log_time is skipped in read-only mode.
func RegisterTimeTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	trackedTool := mcp.NewTool("get_time_tracked",
		mcp.WithDescription("Sum the time tracked in a period, for one task or the whole workspace. Defaults to the last 7 days"),
		mcp.WithString("task_id", mcp.Description("Only entries for this task (ID, custom ID or URL)")),
		mcp.WithString("workspace_id", mcp.Description("Workspace ID (default: configured or first workspace)")),
		mcp.WithNumber("user_id", mcp.Description("Only entries of this user")),
		mcp.WithString("start_date", mcp.Description("Period start, YYYY-MM-DD or RFC3339 (default: 7 days ago)")),
		mcp.WithString("end_date", mcp.Description("Period end, YYYY-MM-DD or RFC3339 (default: now)")),
	)
	s.AddTool(trackedTool, common.InstrumentedToolHandlerWithTarget(
		"get_time_tracked", instrumentation.ResourceTimeEntry, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTimeTracked(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	logTimeTool := mcp.NewTool("log_time",
		mcp.WithDescription("Log time spent on a task"),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task ID, custom task ID (e.g. gh-123) or task URL"),
		),
		mcp.WithString("duration",
			mcp.Required(),
			mcp.Description("Time spent in hours and minutes, e.g. '2h 30m', '45m' or minutes as a number"),
		),
		mcp.WithString("description", mcp.Description("What the time was spent on")),
		mcp.WithBoolean("billable", mcp.Description("Mark the entry billable (default: false)")),
		mcp.WithString("start", mcp.Description("When the work started, RFC3339 (default: now minus duration)")),
		mcp.WithString("workspace_id", mcp.Description("Workspace ID (default: configured or first workspace)")),
	)
	s.AddTool(logTimeTool, common.InstrumentedToolHandlerWithTarget(
		"log_time", instrumentation.ResourceTimeEntry, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleLogTime(ctx, request, sc)
		}))

	return nil
}

type entryView struct {
	ID          string            `json:"id"`
	TaskID      string            `json:"task_id,omitempty"`
	TaskName    string            `json:"task_name,omitempty"`
	User        string            `json:"user"`
	Duration    string            `json:"duration"`
	Start       clickup.Timestamp `json:"start"`
	Description string            `json:"description,omitempty"`
	Billable    bool              `json:"billable"`
}

type period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type trackedReport struct {
	TotalMillis   int64       `json:"total_milliseconds"`
	TotalDuration string      `json:"total_duration"`
	TotalHours    float64     `json:"total_hours"`
	EntryCount    int         `json:"entries_count"`
	Period        period      `json:"period"`
	TaskID        string      `json:"task_id,omitempty"`
	Entries       []entryView `json:"entries"`
}

// summarize totals the entries. Running timers report a negative duration and are skipped
// in the total.
func summarize(entries []clickup.TimeEntry) trackedReport {
	report := trackedReport{Entries: make([]entryView, 0, len(entries))}
	for _, e := range entries {
		if e.Duration > 0 {
			report.TotalMillis += int64(e.Duration)
		}
		v := entryView{
			ID:          e.ID,
			User:        e.User.DisplayName(),
			Duration:    clickup.FormatDuration(int64(e.Duration)),
			Start:       e.Start,
			Description: e.Description,
			Billable:    e.Billable,
		}
		if e.Task != nil {
			v.TaskID = e.Task.ID
			v.TaskName = e.Task.Name
		}
		report.Entries = append(report.Entries, v)
	}
	report.EntryCount = len(entries)
	report.TotalDuration = clickup.FormatDuration(report.TotalMillis)
	report.TotalHours = math.Round(float64(report.TotalMillis)/float64(time.Hour/time.Millisecond)*100) / 100
	return report
}

// periodArgs reads start_date and end_date, defaulting to the last seven days.
func periodArgs(args map[string]any) (start, end int64, err error) {
	end = now().UnixMilli()
	if s := common.StringArg(args, "end_date"); s != "" {
		if end, err = clickup.ParseDate(s); err != nil {
			return 0, 0, err
		}
	}
	start = end - defaultPeriod.Milliseconds()
	if s := common.StringArg(args, "start_date"); s != "" {
		if start, err = clickup.ParseDate(s); err != nil {
			return 0, 0, err
		}
	}
	if start > end {
		return 0, 0, fmt.Errorf("start_date must be before end_date")
	}
	return start, end, nil
}

func handleGetTimeTracked(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	start, end, err := periodArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	userID, err := common.IntArg(args, "user_id", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := clickup.TimeEntryQuery{
		WorkspaceID: common.StringArg(args, "workspace_id"),
		Start:       start,
		End:         end,
	}
	if userID != 0 {
		query.Assignee = fmt.Sprintf("%d", userID)
	}
	if common.StringArg(args, "task_id") != "" {
		task, err := common.ResolveTaskArg(ctx, sc, args, false)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		query.TaskID = task.ID
	}

	entries, err := sc.Client().GetTimeEntries(ctx, query)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	report := summarize(entries)
	report.TaskID = query.TaskID
	report.Period = period{
		Start: time.UnixMilli(start).UTC(),
		End:   time.UnixMilli(end).UTC(),
	}
	return common.JSONResult(report)
}

func handleLogTime(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	raw, err := common.RequiredString(args, "duration")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration, err := clickup.ParseDuration(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if duration == 0 {
		return mcp.NewToolResultError("duration must be positive"), nil
	}

	start := now().UnixMilli() - duration
	if s := common.StringArg(args, "start"); s != "" {
		if start, err = clickup.ParseDate(s); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	task, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	entry, err := sc.Client().CreateTimeEntry(ctx, common.StringArg(args, "workspace_id"), clickup.CreateTimeEntryRequest{
		TaskID:      task.ID,
		Description: common.StringArg(args, "description"),
		Start:       start,
		Duration:    duration,
		Billable:    common.BoolArg(args, "billable", false),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}

	return common.JSONResult(map[string]any{
		"logged":      true,
		"entry_id":    entry.ID,
		"task_id":     task.ID,
		"duration":    clickup.FormatDuration(duration),
		"duration_ms": duration,
		"start":       entry.Start,
	})
}
