package clickup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/teemow/clickup-mcp/internal/instrumentation"
)

// TimeEntryQuery selects time entries in a workspace between Start and End (epoch ms).
type TimeEntryQuery struct {
	WorkspaceID string
	Start       int64
	End         int64
	TaskID      string
	Assignee    string
}

// GetTimeEntries lists time entries.
func (c *Client) GetTimeEntries(ctx context.Context, query TimeEntryQuery) ([]TimeEntry, error) {
	workspaceID, err := c.WorkspaceID(ctx, query.WorkspaceID)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	setMillis(q, "start_date", query.Start)
	setMillis(q, "end_date", query.End)
	if query.TaskID != "" {
		q.Set("task_id", query.TaskID)
	}
	if query.Assignee != "" {
		q.Set("assignee", query.Assignee)
	}

	var resp struct {
		Data []TimeEntry `json:"data"`
	}
	err = c.do(ctx, request{
		method: http.MethodGet, path: "/team/" + url.PathEscape(workspaceID) + "/time_entries",
		query:    q,
		resource: instrumentation.ResourceTimeEntry, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get time entries: %w", err)
	}
	return resp.Data, nil
}

// CreateTimeEntry logs time in a workspace.
func (c *Client) CreateTimeEntry(ctx context.Context, workspaceID string, req CreateTimeEntryRequest) (*TimeEntry, error) {
	if req.Duration <= 0 {
		return nil, errors.New("duration must be positive")
	}
	workspaceID, err := c.WorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data TimeEntry `json:"data"`
	}
	err = c.do(ctx, request{
		method: http.MethodPost, path: "/team/" + url.PathEscape(workspaceID) + "/time_entries",
		body:     req,
		resource: instrumentation.ResourceTimeEntry, operation: instrumentation.OperationCreate,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to log time: %w", err)
	}

	entry := resp.Data
	if entry.Duration == 0 {
		entry.Duration = FlexInt(req.Duration)
	}
	if entry.Start.IsZero() {
		entry.Start = NewTimestamp(req.Start)
	}
	if entry.Task == nil && req.TaskID != "" {
		entry.Task = &TimeEntryTask{ID: req.TaskID}
	}
	return &entry, nil
}
