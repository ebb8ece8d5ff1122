package task_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

// taskTemplate is a built-in task skeleton. NameFormat takes the title.
type taskTemplate struct {
	NameFormat  string
	Description string
	Priority    clickup.Priority
	Tags        []string
}

var taskTemplates = map[string]taskTemplate{
	"bug_report": {
		NameFormat:  "Bug Report: %s",
		Description: "## Description\n\n## Steps to Reproduce\n1. \n2. \n3. \n\n## Expected Behavior\n\n## Actual Behavior\n\n## Environment\n",
		Priority:    clickup.PriorityHigh,
		Tags:        []string{"bug"},
	},
	"feature_request": {
		NameFormat:  "Feature: %s",
		Description: "## Feature Description\n\n## User Story\nAs a [user type], I want [goal] so that [benefit].\n\n## Acceptance Criteria\n- [ ] \n- [ ] \n\n## Technical Notes\n",
		Priority:    clickup.PriorityNormal,
		Tags:        []string{"feature"},
	},
	"code_review": {
		NameFormat:  "Code Review: %s",
		Description: "## PR Link\n\n## Changes Summary\n\n## Checklist\n- [ ] Code follows style guidelines\n- [ ] Tests added/updated\n- [ ] Documentation updated\n- [ ] No console errors\n",
		Priority:    clickup.PriorityHigh,
		Tags:        []string{"review"},
	},
}

func templateNames() []string {
	names := make([]string, 0, len(taskTemplates))
	for name := range taskTemplates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func registerTemplateTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	fromTemplateOpts := []mcp.ToolOption{
		mcp.WithDescription("Create a task from a built-in template: " + strings.Join(templateNames(), ", ")),
		mcp.WithString("template_name",
			mcp.Required(),
			mcp.Description("Template to use"),
			mcp.Enum(templateNames()...),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Title inserted into the template's task name"),
		),
		mcp.WithObject("customizations",
			mcp.Description("Overrides for the template: description, priority, tags, assignees"),
		),
	}
	fromTemplateOpts = append(fromTemplateOpts, listParams()...)
	s.AddTool(mcp.NewTool("create_task_from_template", fromTemplateOpts...), common.InstrumentedToolHandlerWithTarget(
		"create_task_from_template", instrumentation.ResourceTask, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTaskFromTemplate(ctx, request, sc)
		}))

	chainOpts := []mcp.ToolOption{
		mcp.WithDescription("Create a sequence of tasks in one list, each linked to the one before it"),
		mcp.WithArray("tasks",
			mcp.Required(),
			mcp.Description("Tasks in order. Each item has name, and optionally description and time_estimate"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":          map[string]any{"type": "string"},
					"description":   map[string]any{"type": "string"},
					"time_estimate": map[string]any{"type": "string"},
				},
				"required": []string{"name"},
			}),
		),
		mcp.WithBoolean("auto_link",
			mcp.Description("Link each task to the previous one (default: true)"),
		),
	}
	chainOpts = append(chainOpts, listParams()...)
	s.AddTool(mcp.NewTool("create_task_chain", chainOpts...), common.InstrumentedToolHandlerWithTarget(
		"create_task_chain", instrumentation.ResourceTask, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTaskChain(ctx, request, sc)
		}))

	return nil
}

// buildFromTemplate applies the title and customizations to a template.
func buildFromTemplate(name, title string, customizations map[string]any) (clickup.CreateTaskRequest, error) {
	tmpl, ok := taskTemplates[name]
	if !ok {
		return clickup.CreateTaskRequest{}, fmt.Errorf("template %q not found; available: %s", name, strings.Join(templateNames(), ", "))
	}

	req := clickup.CreateTaskRequest{
		Name:        fmt.Sprintf(tmpl.NameFormat, title),
		Description: tmpl.Description,
		Priority:    int(tmpl.Priority),
		Tags:        append([]string(nil), tmpl.Tags...),
	}
	if customizations == nil {
		return req, nil
	}

	if desc := common.StringArg(customizations, "description"); desc != "" {
		req.Description = desc
	}
	p, ok, err := priorityArg(customizations, "priority")
	if err != nil {
		return req, err
	}
	if ok {
		req.Priority = int(p)
	}
	tags, err := common.StringListArg(customizations, "tags")
	if err != nil {
		return req, err
	}
	if tags != nil {
		req.Tags = tags
	}
	if req.Assignees, err = common.Int64ListArg(customizations, "assignees"); err != nil {
		return req, err
	}
	return req, nil
}

func handleCreateTaskFromTemplate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "template_name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := common.RequiredString(args, "title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	customizations, _ := args["customizations"].(map[string]any)

	req, err := buildFromTemplate(name, title, customizations)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	listID, err := resolveListID(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := sc.Client().CreateTask(ctx, listID, req)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"task":     common.Summarize(*task),
		"template": name,
		"created":  true,
	})
}

// chainItem is one entry of create_task_chain. "title" is accepted as an alias of name.
type chainItem struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	TimeEstimate string `json:"time_estimate"`
}

func parseChain(raw any) ([]chainItem, error) {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("tasks is required")
	case string:
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return nil, fmt.Errorf("invalid tasks: %w", err)
		}
	}

	var items []chainItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("tasks must be an array of objects: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("tasks cannot be empty")
	}
	for i := range items {
		if items[i].Name == "" {
			items[i].Name = items[i].Title
		}
		items[i].Name = strings.TrimSpace(items[i].Name)
		if items[i].Name == "" {
			return nil, fmt.Errorf("tasks[%d] needs a name", i)
		}
	}
	return items, nil
}

type chainResult struct {
	Created int                  `json:"created"`
	Linked  bool                 `json:"linked"`
	Tasks   []common.TaskSummary `json:"tasks"`
}

func handleCreateTaskChain(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	items, err := parseChain(args["tasks"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	autoLink := common.BoolArg(args, "auto_link", true)

	reqs := make([]clickup.CreateTaskRequest, len(items))
	for i, item := range items {
		reqs[i] = clickup.CreateTaskRequest{Name: item.Name, Description: item.Description}
		if item.TimeEstimate != "" {
			if reqs[i].TimeEstimate, err = clickup.ParseDuration(item.TimeEstimate); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("tasks[%d]: %v", i, err)), nil
			}
		}
	}

	listID, err := resolveListID(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := chainResult{Linked: autoLink, Tasks: []common.TaskSummary{}}
	prevID := ""
	for i, req := range reqs {
		if autoLink {
			req.LinksTo = prevID
		}
		task, err := sc.Client().CreateTask(ctx, listID, req)
		if err != nil {
			ids := make([]string, 0, len(result.Tasks))
			for _, t := range result.Tasks {
				ids = append(ids, t.ID)
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed at tasks[%d] %q after creating %d task(s) %v: %v",
				i, req.Name, len(ids), ids, err)), nil
		}
		result.Tasks = append(result.Tasks, common.Summarize(*task))
		result.Created++
		prevID = task.ID
	}
	return common.JSONResult(result)
}
