package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
)

// HandlerFunc is the signature of an MCP tool handler.
type HandlerFunc = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler HandlerFunc) HandlerFunc {
	return InstrumentedToolHandlerWithTarget(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithTarget is like InstrumentedToolHandler but also records the
// ClickUp resource and operation the tool acts on in the span and the audit record.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandlerWithTarget("get_task",
//		instrumentation.ResourceTask, instrumentation.OperationGet, sc, handler))
func InstrumentedToolHandlerWithTarget(
	toolName string,
	resource string,
	operation string,
	sc *server.ServerContext,
	handler HandlerFunc,
) HandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		workspace := StringArg(args, "workspace_id")
		if workspace == "" {
			workspace = sc.Config().DefaultTeamID
		}
		taskRef := StringArg(args, "task_id")

		attrs := instrumentation.NewSpanAttributeBuilder().
			WithResource(resource, "").
			WithWorkspace(workspace).
			WithTaskRef(taskRef).
			WithReadOnly(sc.ReadOnly()).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		defer span.End()

		metrics := sc.Metrics()
		auditLogger := sc.AuditLogger()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithUser(sc.UserEmail()).
			WithWorkspace(workspace).
			WithTaskRef(taskRef).
			WithTarget(resource, operation)

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			resultErr := errors.New(ResultText(result))
			invocation.CompleteWithError(resultErr)
			instrumentation.SetSpanError(span, resultErr)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, workspace, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}
