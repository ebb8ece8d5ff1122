package clickup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/logging"
)

// CreateTask creates a task in a list.
func (c *Client) CreateTask(ctx context.Context, listID string, req CreateTaskRequest) (*Task, error) {
	if listID == "" {
		return nil, errors.New("list ID is required")
	}
	if req.Name == "" {
		return nil, errors.New("task name is required")
	}

	var task Task
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/list/" + url.PathEscape(listID) + "/task",
		body:     req,
		resource: instrumentation.ResourceTask, operation: instrumentation.OperationCreate,
	}, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return &task, nil
}

// GetTask fetches a task. With opts.CustomTaskIDs the ID is looked up as a custom task ID
// in opts.TeamID.
func (c *Client) GetTask(ctx context.Context, taskID string, opts GetTaskOptions) (*Task, error) {
	q := url.Values{}
	if opts.IncludeSubtasks {
		q.Set("include_subtasks", "true")
	}
	if opts.CustomTaskIDs {
		q.Set("custom_task_ids", "true")
		if opts.TeamID != "" {
			q.Set("team_id", opts.TeamID)
		}
	}

	var task Task
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/task/" + url.PathEscape(taskID),
		query:    q,
		resource: instrumentation.ResourceTask, operation: instrumentation.OperationGet,
	}, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to get task %s: %w", taskID, err)
	}
	return &task, nil
}

// UpdateTask applies req to a task and returns the updated task.
func (c *Client) UpdateTask(ctx context.Context, taskID string, req UpdateTaskRequest) (*Task, error) {
	if req.IsEmpty() {
		return nil, errors.New("no fields to update")
	}

	var task Task
	err := c.do(ctx, request{
		method: http.MethodPut, path: "/task/" + url.PathEscape(taskID),
		body:     req,
		resource: instrumentation.ResourceTask, operation: instrumentation.OperationUpdate,
	}, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to update task %s: %w", taskID, err)
	}
	return &task, nil
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	err := c.do(ctx, request{
		method: http.MethodDelete, path: "/task/" + url.PathEscape(taskID),
		resource: instrumentation.ResourceTask, operation: instrumentation.OperationDelete,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	return nil
}

// MoveTask sets a task's home list.
func (c *Client) MoveTask(ctx context.Context, taskID, listID string) (*Task, error) {
	if listID == "" {
		return nil, errors.New("target list ID is required")
	}

	var task Task
	err := c.do(ctx, request{
		method: http.MethodPut, path: "/task/" + url.PathEscape(taskID),
		body:     map[string]string{"list": listID},
		resource: instrumentation.ResourceTask, operation: instrumentation.OperationMove,
	}, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to move task %s: %w", taskID, err)
	}
	return &task, nil
}

// GetTasks lists tasks in a list. For a folder or space every list is queried in turn;
// lists that fail are logged and skipped.
func (c *Client) GetTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	if filter.ListID != "" {
		return c.listTasks(ctx, filter.ListID, filter)
	}

	var lists []List
	var err error
	switch {
	case filter.FolderID != "":
		lists, err = c.GetLists(ctx, filter.FolderID, "", false)
	case filter.SpaceID != "":
		lists, err = c.spaceLists(ctx, filter.SpaceID)
	default:
		return nil, errors.New("a list, folder or space ID is required")
	}
	if err != nil {
		return nil, err
	}

	var tasks []Task
	for _, l := range lists {
		listTasks, err := c.listTasks(ctx, l.ID, filter)
		if err != nil {
			c.logger.Warn("skipping list", "list_id", l.ID, logging.Err(err))
			continue
		}
		tasks = append(tasks, listTasks...)
	}
	return tasks, nil
}

// spaceLists returns a space's folderless lists followed by every folder's lists.
func (c *Client) spaceLists(ctx context.Context, spaceID string) ([]List, error) {
	lists, err := c.GetLists(ctx, "", spaceID, false)
	if err != nil {
		return nil, err
	}
	folders, err := c.GetFolders(ctx, spaceID, false)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if len(f.Lists) > 0 {
			lists = append(lists, f.Lists...)
			continue
		}
		folderLists, err := c.GetLists(ctx, f.ID, "", false)
		if err != nil {
			c.logger.Warn("skipping folder", "folder_id", f.ID, logging.Err(err))
			continue
		}
		lists = append(lists, folderLists...)
	}
	return lists, nil
}

func (c *Client) listTasks(ctx context.Context, listID string, filter TaskFilter) ([]Task, error) {
	q := url.Values{}
	q.Set("archived", boolString(filter.Archived))
	q.Set("page", strconv.Itoa(filter.Page))
	if filter.IncludeClosed {
		q.Set("include_closed", "true")
	}
	if filter.Subtasks {
		q.Set("subtasks", "true")
	}
	if filter.OrderBy != "" {
		q.Set("order_by", filter.OrderBy)
	}
	if filter.Reverse {
		q.Set("reverse", "true")
	}
	if filter.DueDateGreater > 0 {
		q.Set("due_date_gt", strconv.FormatInt(filter.DueDateGreater, 10))
	}
	if filter.DueDateLess > 0 {
		q.Set("due_date_lt", strconv.FormatInt(filter.DueDateLess, 10))
	}
	addArray(q, "statuses[]", filter.Statuses)
	addArray(q, "assignees[]", filter.Assignees)
	addArray(q, "tags[]", filter.Tags)

	var resp struct {
		Tasks []Task `json:"tasks"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/list/" + url.PathEscape(listID) + "/task",
		query:    q,
		resource: instrumentation.ResourceTask, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks in list %s: %w", listID, err)
	}
	return resp.Tasks, nil
}

// SearchTasks queries tasks across a workspace. ClickUp matches Query against task names
// and custom IDs.
func (c *Client) SearchTasks(ctx context.Context, params SearchTasksParams) ([]Task, error) {
	workspaceID, err := c.WorkspaceID(ctx, params.WorkspaceID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(params.Page))
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	if params.IncludeClosed {
		q.Set("include_closed", "true")
	}
	if params.Subtasks {
		q.Set("subtasks", "true")
	}
	if params.Parent != "" {
		q.Set("parent", params.Parent)
	}
	setMillis(q, "date_created_gt", params.DateCreatedAfter)
	setMillis(q, "date_created_lt", params.DateCreatedUntil)
	setMillis(q, "date_updated_gt", params.DateUpdatedAfter)
	setMillis(q, "date_updated_lt", params.DateUpdatedUntil)
	addArray(q, "statuses[]", params.Statuses)
	addArray(q, "assignees[]", params.Assignees)
	addArray(q, "tags[]", params.Tags)
	addArray(q, "list_ids[]", params.ListIDs)
	addArray(q, "space_ids[]", params.SpaceIDs)

	var resp struct {
		Tasks []Task `json:"tasks"`
	}
	err = c.do(ctx, request{
		method: http.MethodGet, path: "/team/" + url.PathEscape(workspaceID) + "/task",
		query:    q,
		resource: instrumentation.ResourceTask, operation: instrumentation.OperationSearch,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	return resp.Tasks, nil
}

// GetSubtasks returns the direct subtasks of parentID, including closed ones.
func (c *Client) GetSubtasks(ctx context.Context, parentID, workspaceID string) ([]Task, error) {
	return c.SearchTasks(ctx, SearchTasksParams{
		WorkspaceID:   workspaceID,
		Parent:        parentID,
		IncludeClosed: true,
		Subtasks:      true,
	})
}

// GetTaskComments lists a task's comments, newest first.
func (c *Client) GetTaskComments(ctx context.Context, taskID string) ([]Comment, error) {
	var resp struct {
		Comments []Comment `json:"comments"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/task/" + url.PathEscape(taskID) + "/comment",
		resource: instrumentation.ResourceComment, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments for task %s: %w", taskID, err)
	}
	return resp.Comments, nil
}

// CreateTaskComment posts a comment. assignee of 0 leaves the comment unassigned.
func (c *Client) CreateTaskComment(ctx context.Context, taskID, text string, assignee int64, notifyAll bool) (*Comment, error) {
	if text == "" {
		return nil, errors.New("comment text is required")
	}

	body := map[string]any{
		"comment_text": text,
		"notify_all":   notifyAll,
	}
	if assignee != 0 {
		body["assignee"] = assignee
	}

	// The create endpoint only echoes id and date.
	var resp struct {
		ID   FlexInt   `json:"id"`
		Date Timestamp `json:"date"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost, path: "/task/" + url.PathEscape(taskID) + "/comment",
		body:     body,
		resource: instrumentation.ResourceComment, operation: instrumentation.OperationCreate,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to comment on task %s: %w", taskID, err)
	}

	return &Comment{
		ID:          strconv.FormatInt(int64(resp.ID), 10),
		CommentText: text,
		Date:        resp.Date,
	}, nil
}

func addArray(q url.Values, key string, values []string) {
	for _, v := range values {
		if v != "" {
			q.Add(key, v)
		}
	}
}

func setMillis(q url.Values, key string, ms int64) {
	if ms > 0 {
		q.Set(key, strconv.FormatInt(ms, 10))
	}
}
