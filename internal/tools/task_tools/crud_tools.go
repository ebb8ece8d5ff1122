package task_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

func registerCRUDTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getTaskTool := mcp.NewTool("get_task",
		mcp.WithDescription("Get task details. Accepts internal IDs, custom IDs such as gh-123, and task URLs"),
		taskIDParam(),
		mcp.WithBoolean("include_subtasks",
			mcp.Description("Include subtasks in the response (default: false)"),
		),
	)
	s.AddTool(getTaskTool, common.InstrumentedToolHandlerWithTarget(
		"get_task", instrumentation.ResourceTask, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTask(ctx, request, sc)
		}))

	listTasksTool := mcp.NewTool("list_tasks",
		mcp.WithDescription("List tasks in a list, folder or space. Folder and space queries cover all their lists"),
		mcp.WithString("list_id", mcp.Description("List ID")),
		mcp.WithString("folder_id", mcp.Description("Folder ID")),
		mcp.WithString("space_id", mcp.Description("Space ID")),
		mcp.WithArray("statuses",
			mcp.Description("Only tasks with one of these statuses"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("assignees",
			mcp.Description("Only tasks assigned to one of these user IDs"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("tags",
			mcp.Description("Only tasks with one of these tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("include_closed", mcp.Description("Include closed tasks (default: false)")),
		mcp.WithBoolean("subtasks", mcp.Description("Include subtasks (default: false)")),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 0")),
		mcp.WithString("order_by", mcp.Description("Sort field: id, created, updated or due_date")),
	)
	s.AddTool(listTasksTool, common.InstrumentedToolHandlerWithTarget(
		"list_tasks", instrumentation.ResourceTask, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListTasks(ctx, request, sc)
		}))

	searchTasksTool := mcp.NewTool("search_tasks",
		mcp.WithDescription("Search tasks across a workspace by text and filters"),
		mcp.WithString("query", mcp.Description("Text matched against task names and custom IDs")),
		mcp.WithString("workspace_id", mcp.Description("Workspace ID (default: configured or first workspace)")),
		mcp.WithArray("statuses",
			mcp.Description("Only tasks with one of these statuses"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("assignees",
			mcp.Description("Only tasks assigned to one of these user IDs"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("tags",
			mcp.Description("Only tasks with one of these tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("list_ids",
			mcp.Description("Only tasks in these lists"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("space_ids",
			mcp.Description("Only tasks in these spaces"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("include_closed", mcp.Description("Include closed tasks (default: false)")),
		mcp.WithNumber("page", mcp.Description("Page number, starting at 0")),
	)
	s.AddTool(searchTasksTool, common.InstrumentedToolHandlerWithTarget(
		"search_tasks", instrumentation.ResourceTask, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchTasks(ctx, request, sc)
		}))

	getSubtasksTool := mcp.NewTool("get_subtasks",
		mcp.WithDescription("Get the subtasks of a task, including closed ones"),
		taskIDParam(),
	)
	s.AddTool(getSubtasksTool, common.InstrumentedToolHandlerWithTarget(
		"get_subtasks", instrumentation.ResourceTask, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetSubtasks(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	createOpts := []mcp.ToolOption{
		mcp.WithDescription("Create a task in a list, given by ID or by name"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Task name"),
		),
		mcp.WithString("description", mcp.Description("Task description (markdown)")),
	}
	createOpts = append(createOpts, listParams()...)
	createOpts = append(createOpts,
		mcp.WithArray("assignees",
			mcp.Description("User IDs to assign"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
		mcp.WithArray("tags",
			mcp.Description("Tag names"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("status", mcp.Description("Initial status")),
		mcp.WithNumber("priority", mcp.Description("Priority: 1 urgent, 2 high, 3 normal, 4 low")),
		mcp.WithString("due_date", mcp.Description("Due date, YYYY-MM-DD or RFC3339")),
		mcp.WithString("time_estimate", mcp.Description("Time estimate, e.g. '2h 30m' or '90m'")),
		mcp.WithString("parent", mcp.Description("Parent task reference; creates a subtask")),
	)
	s.AddTool(mcp.NewTool("create_task", createOpts...), common.InstrumentedToolHandlerWithTarget(
		"create_task", instrumentation.ResourceTask, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTask(ctx, request, sc)
		}))

	updateTaskTool := mcp.NewTool("update_task",
		mcp.WithDescription("Update task fields. Only the given fields change"),
		taskIDParam(),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("description", mcp.Description("New description; an empty string clears it")),
		mcp.WithString("status", mcp.Description("New status")),
		mcp.WithNumber("priority", mcp.Description("New priority: 1 urgent, 2 high, 3 normal, 4 low")),
		mcp.WithString("due_date", mcp.Description("New due date, YYYY-MM-DD or RFC3339")),
		mcp.WithString("time_estimate", mcp.Description("New time estimate, e.g. '2h 30m'")),
		mcp.WithArray("assignees_add",
			mcp.Description("User IDs to add as assignees"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
		mcp.WithArray("assignees_remove",
			mcp.Description("User IDs to remove as assignees"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	)
	s.AddTool(updateTaskTool, common.InstrumentedToolHandlerWithTarget(
		"update_task", instrumentation.ResourceTask, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateTask(ctx, request, sc)
		}))

	deleteTaskTool := mcp.NewTool("delete_task",
		mcp.WithDescription("Delete a task"),
		taskIDParam(),
	)
	s.AddTool(deleteTaskTool, common.InstrumentedToolHandlerWithTarget(
		"delete_task", instrumentation.ResourceTask, instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteTask(ctx, request, sc)
		}))

	return nil
}

// userRef is the short user shape in task details.
type userRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

func userRefs(users []clickup.User) []userRef {
	refs := make([]userRef, 0, len(users))
	for _, u := range users {
		refs = append(refs, userRef{ID: u.ID, Username: u.Username, Email: u.Email})
	}
	return refs
}

type taskDetail struct {
	ID           string               `json:"id"`
	CustomID     string               `json:"custom_id,omitempty"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	Status       string               `json:"status"`
	Priority     string               `json:"priority,omitempty"`
	Assignees    []userRef            `json:"assignees"`
	Creator      userRef              `json:"creator"`
	Tags         []string             `json:"tags"`
	List         string               `json:"list"`
	Folder       string               `json:"folder,omitempty"`
	Space        string               `json:"space,omitempty"`
	Parent       string               `json:"parent,omitempty"`
	DueDate      *clickup.Timestamp   `json:"due_date,omitempty"`
	StartDate    *clickup.Timestamp   `json:"start_date,omitempty"`
	DateCreated  clickup.Timestamp    `json:"date_created"`
	DateUpdated  clickup.Timestamp    `json:"date_updated"`
	TimeEstimate string               `json:"time_estimate,omitempty"`
	TimeSpent    string               `json:"time_spent,omitempty"`
	URL          string               `json:"url"`
	Subtasks     []common.TaskSummary `json:"subtasks,omitempty"`
}

func newTaskDetail(t *clickup.Task) taskDetail {
	d := taskDetail{
		ID:          t.ID,
		CustomID:    t.CustomID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status.Status,
		Assignees:   userRefs(t.Assignees),
		Creator:     userRef{ID: t.Creator.ID, Username: t.Creator.Username},
		Tags:        []string(t.Tags),
		List:        t.List.Name,
		Folder:      t.Folder.Name,
		Space:       t.Space.Name,
		Parent:      t.Parent,
		DateCreated: t.DateCreated,
		DateUpdated: t.DateUpdated,
		URL:         common.Summarize(*t).URL,
	}
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if t.Priority != clickup.PriorityNone {
		d.Priority = t.Priority.String()
	}
	if !t.DueDate.IsZero() {
		due := t.DueDate
		d.DueDate = &due
	}
	if !t.StartDate.IsZero() {
		start := t.StartDate
		d.StartDate = &start
	}
	if t.TimeEstimate > 0 {
		d.TimeEstimate = clickup.FormatDuration(int64(t.TimeEstimate))
	}
	if t.TimeSpent > 0 {
		d.TimeSpent = clickup.FormatDuration(int64(t.TimeSpent))
	}
	if len(t.Subtasks) > 0 {
		d.Subtasks = common.SummarizeAll(t.Subtasks)
	}
	return d
}

func handleGetTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	task, err := common.ResolveTaskArg(ctx, sc, args, common.BoolArg(args, "include_subtasks", false))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(newTaskDetail(task))
}

func handleCreateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := clickup.CreateTaskRequest{
		Name:        name,
		Description: common.StringArg(args, "description"),
		Status:      common.StringArg(args, "status"),
	}

	p, _, err := priorityArg(args, "priority")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	req.Priority = int(p)

	if req.Assignees, err = common.Int64ListArg(args, "assignees"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Tags, err = common.StringListArg(args, "tags"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if due := common.StringArg(args, "due_date"); due != "" {
		if req.DueDate, err = clickup.ParseDate(due); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if estimate := common.StringArg(args, "time_estimate"); estimate != "" {
		if req.TimeEstimate, err = clickup.ParseDuration(estimate); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if parentRef := common.StringArg(args, "parent"); parentRef != "" {
		parent, err := sc.ResolveTask(ctx, parentRef, false)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		req.Parent = parent.ID
	}

	listID, err := resolveListID(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := sc.Client().CreateTask(ctx, listID, req)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(taskResult{TaskSummary: common.Summarize(*task), Created: true})
}

func handleUpdateTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	req, err := buildUpdate(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.IsEmpty() {
		return mcp.NewToolResultError("no fields to update"), nil
	}

	task, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	updated, err := sc.Client().UpdateTask(ctx, task.ID, req)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(taskResult{TaskSummary: common.Summarize(*updated), Updated: true})
}

func handleDeleteTask(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	task, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if err := sc.Client().DeleteTask(ctx, task.ID); err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"id":      task.ID,
		"name":    task.Name,
		"deleted": true,
	})
}

type taskList struct {
	Tasks []common.TaskSummary `json:"tasks"`
	Count int                  `json:"count"`
}

func newTaskList(tasks []clickup.Task) taskList {
	return taskList{Tasks: common.SummarizeAll(tasks), Count: len(tasks)}
}

func handleListTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	filter := clickup.TaskFilter{
		ListID:        common.StringArg(args, "list_id"),
		FolderID:      common.StringArg(args, "folder_id"),
		SpaceID:       common.StringArg(args, "space_id"),
		IncludeClosed: common.BoolArg(args, "include_closed", false),
		Subtasks:      common.BoolArg(args, "subtasks", false),
		OrderBy:       common.StringArg(args, "order_by"),
	}
	if filter.ListID == "" && filter.FolderID == "" && filter.SpaceID == "" {
		return mcp.NewToolResultError("one of list_id, folder_id or space_id is required"), nil
	}

	var err error
	if filter.Page, err = common.IntArg(args, "page", 0); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if filter.Statuses, err = common.StringListArg(args, "statuses"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if filter.Assignees, err = idListArg(args, "assignees"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if filter.Tags, err = common.StringListArg(args, "tags"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tasks, err := sc.Client().GetTasks(ctx, filter)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(newTaskList(tasks))
}

func handleSearchTasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params := clickup.SearchTasksParams{
		WorkspaceID:   common.StringArg(args, "workspace_id"),
		Query:         common.StringArg(args, "query"),
		IncludeClosed: common.BoolArg(args, "include_closed", false),
	}

	var err error
	if params.Page, err = common.IntArg(args, "page", 0); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if params.Statuses, err = common.StringListArg(args, "statuses"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if params.Assignees, err = idListArg(args, "assignees"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if params.Tags, err = common.StringListArg(args, "tags"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if params.ListIDs, err = common.StringListArg(args, "list_ids"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if params.SpaceIDs, err = common.StringListArg(args, "space_ids"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tasks, err := sc.Client().SearchTasks(ctx, params)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(newTaskList(tasks))
}

func handleGetSubtasks(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	parent, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	subtasks, err := sc.Client().GetSubtasks(ctx, parent.ID, common.StringArg(args, "workspace_id"))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"parent_id": parent.ID,
		"subtasks":  common.SummarizeAll(subtasks),
		"count":     len(subtasks),
	})
}

// idListArg reads user IDs as strings for query parameters.
func idListArg(args map[string]any, key string) ([]string, error) {
	ids, err := common.Int64ListArg(args, key)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%d", id))
	}
	return out, nil
}
