package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/resolver"
	"github.com/teemow/clickup-mcp/internal/server"
)

// JSONResult renders v as indented JSON text.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// ErrorResult turns err into a tool error. Resolution failures carry their kind so the
// caller can tell a missing task from an upstream outage.
func ErrorResult(err error) *mcp.CallToolResult {
	var re *resolver.ResolutionError
	if errors.As(err, &re) {
		return mcp.NewToolResultError(fmt.Sprintf("%s [%s]", re.Error(), re.Kind))
	}
	return mcp.NewToolResultError(err.Error())
}

// ResultText joins the text content of a tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var parts []string
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// ResolveTaskArg resolves the task reference in the task_id argument.
func ResolveTaskArg(ctx context.Context, sc *server.ServerContext, args map[string]any, includeSubtasks bool) (*clickup.Task, error) {
	ref, err := RequiredString(args, "task_id")
	if err != nil {
		return nil, err
	}
	return sc.ResolveTask(ctx, ref, includeSubtasks)
}

// TaskSummary is the compact task shape used in list and bulk results.
type TaskSummary struct {
	ID        string   `json:"id"`
	CustomID  string   `json:"custom_id,omitempty"`
	Name      string   `json:"name"`
	Status    string   `json:"status"`
	Priority  string   `json:"priority,omitempty"`
	Assignees []string `json:"assignees,omitempty"`
	DueDate   string   `json:"due_date,omitempty"`
	List      string   `json:"list,omitempty"`
	URL       string   `json:"url"`
}

// Summarize reduces a task to a TaskSummary.
func Summarize(t clickup.Task) TaskSummary {
	s := TaskSummary{
		ID:       t.ID,
		CustomID: t.CustomID,
		Name:     t.Name,
		Status:   t.Status.Status,
		List:     t.List.Name,
		URL:      t.URL,
	}
	if t.Priority != clickup.PriorityNone {
		s.Priority = t.Priority.String()
	}
	for _, a := range t.Assignees {
		s.Assignees = append(s.Assignees, a.DisplayName())
	}
	if !t.DueDate.IsZero() {
		s.DueDate = t.DueDate.Format("2006-01-02")
	}
	if s.URL == "" {
		s.URL = clickup.TaskURL(t.ID)
	}
	return s
}

// SummarizeAll maps Summarize over tasks. The result is never nil.
func SummarizeAll(tasks []clickup.Task) []TaskSummary {
	out := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, Summarize(t))
	}
	return out
}
