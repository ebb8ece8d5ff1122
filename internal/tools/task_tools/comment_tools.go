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

func registerCommentTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getCommentsTool := mcp.NewTool("get_task_comments",
		mcp.WithDescription("Get the comments of a task, newest first"),
		taskIDParam(),
	)
	s.AddTool(getCommentsTool, common.InstrumentedToolHandlerWithTarget(
		"get_task_comments", instrumentation.ResourceComment, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetTaskComments(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	createCommentTool := mcp.NewTool("create_task_comment",
		mcp.WithDescription("Add a comment to a task"),
		taskIDParam(),
		mcp.WithString("comment_text",
			mcp.Required(),
			mcp.Description("Comment text"),
		),
		mcp.WithNumber("assignee",
			mcp.Description("User ID to assign the comment to"),
		),
		mcp.WithBoolean("notify_all",
			mcp.Description("Notify all task watchers (default: true)"),
		),
	)
	s.AddTool(createCommentTool, common.InstrumentedToolHandlerWithTarget(
		"create_task_comment", instrumentation.ResourceComment, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateTaskComment(ctx, request, sc)
		}))

	return nil
}

type commentView struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Author   string            `json:"author,omitempty"`
	Assignee string            `json:"assignee,omitempty"`
	Resolved bool              `json:"resolved"`
	Date     clickup.Timestamp `json:"date"`
}

func newCommentView(c clickup.Comment) commentView {
	v := commentView{
		ID:       c.ID,
		Text:     c.CommentText,
		Author:   c.User.DisplayName(),
		Resolved: c.Resolved,
		Date:     c.Date,
	}
	if c.Assignee != nil {
		v.Assignee = c.Assignee.DisplayName()
	}
	return v
}

func handleGetTaskComments(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	task, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	comments, err := sc.Client().GetTaskComments(ctx, task.ID)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, newCommentView(c))
	}
	return common.JSONResult(map[string]any{
		"task_id":  task.ID,
		"comments": views,
		"count":    len(views),
	})
}

func handleCreateTaskComment(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text, err := common.RequiredString(args, "comment_text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	assignee, err := common.IntArg(args, "assignee", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	task, err := common.ResolveTaskArg(ctx, sc, args, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	comment, err := sc.Client().CreateTaskComment(ctx, task.ID, text, int64(assignee), common.BoolArg(args, "notify_all", true))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"task_id": task.ID,
		"comment": newCommentView(*comment),
		"created": true,
	})
}
