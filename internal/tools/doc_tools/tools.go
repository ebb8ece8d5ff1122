package doc_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

// RegisterDocTools registers the doc tools with the MCP server. create_doc and update_doc
// are skipped in read-only mode.
func RegisterDocTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	getDocTool := mcp.NewTool("get_doc",
		mcp.WithDescription("Get a doc with its content"),
		mcp.WithString("doc_id",
			mcp.Required(),
			mcp.Description("Doc ID"),
		),
	)
	s.AddTool(getDocTool, common.InstrumentedToolHandlerWithTarget(
		"get_doc", instrumentation.ResourceDoc, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetDoc(ctx, request, sc)
		}))

	listDocsTool := mcp.NewTool("list_docs",
		mcp.WithDescription("List the docs of a workspace"),
		mcp.WithString("workspace_id", mcp.Description("Workspace ID (default: configured or first workspace)")),
	)
	s.AddTool(listDocsTool, common.InstrumentedToolHandlerWithTarget(
		"list_docs", instrumentation.ResourceDoc, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListDocs(ctx, request, sc)
		}))

	searchDocsTool := mcp.NewTool("search_docs",
		mcp.WithDescription("Search the docs of a workspace by text"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text"),
		),
		mcp.WithString("workspace_id", mcp.Description("Workspace ID (default: configured or first workspace)")),
	)
	s.AddTool(searchDocsTool, common.InstrumentedToolHandlerWithTarget(
		"search_docs", instrumentation.ResourceDoc, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchDocs(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	createDocTool := mcp.NewTool("create_doc",
		mcp.WithDescription("Create a doc in a folder"),
		mcp.WithString("folder_id",
			mcp.Required(),
			mcp.Description("Folder ID"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Doc name"),
		),
		mcp.WithString("content", mcp.Description("Doc content (markdown)")),
	)
	s.AddTool(createDocTool, common.InstrumentedToolHandlerWithTarget(
		"create_doc", instrumentation.ResourceDoc, instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateDoc(ctx, request, sc)
		}))

	updateDocTool := mcp.NewTool("update_doc",
		mcp.WithDescription("Rename a doc or replace its content"),
		mcp.WithString("doc_id",
			mcp.Required(),
			mcp.Description("Doc ID"),
		),
		mcp.WithString("name", mcp.Description("New name")),
		mcp.WithString("content", mcp.Description("New content; an empty string clears it")),
	)
	s.AddTool(updateDocTool, common.InstrumentedToolHandlerWithTarget(
		"update_doc", instrumentation.ResourceDoc, instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateDoc(ctx, request, sc)
		}))

	return nil
}

type docSummary struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	DateUpdated clickup.Timestamp `json:"date_updated"`
}

func summarizeDocs(docs []clickup.Doc) map[string]any {
	out := make([]docSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, docSummary{ID: d.ID, Name: d.Name, DateUpdated: d.DateUpdated})
	}
	return map[string]any{
		"docs":  out,
		"count": len(out),
	}
}

func handleGetDoc(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	docID, err := common.RequiredString(request.GetArguments(), "doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := sc.Client().GetDoc(ctx, docID)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(doc)
}

func handleListDocs(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	docs, err := sc.Client().ListDocs(ctx, common.StringArg(request.GetArguments(), "workspace_id"))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(summarizeDocs(docs))
}

func handleSearchDocs(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, err := common.RequiredString(args, "query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	docs, err := sc.Client().SearchDocs(ctx, common.StringArg(args, "workspace_id"), query)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	result := summarizeDocs(docs)
	result["query"] = query
	return common.JSONResult(result)
}

func handleCreateDoc(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	folderID, err := common.RequiredString(args, "folder_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := common.RequiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	doc, err := sc.Client().CreateDoc(ctx, folderID, clickup.CreateDocRequest{
		Name:    name,
		Content: common.StringArg(args, "content"),
	})
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"id":      doc.ID,
		"name":    doc.Name,
		"created": true,
	})
}

func handleUpdateDoc(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	docID, err := common.RequiredString(args, "doc_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := clickup.UpdateDocRequest{Content: common.OptionalString(args, "content")}
	if name := common.StringArg(args, "name"); name != "" {
		req.Name = &name
	}
	if req.Name == nil && req.Content == nil {
		return mcp.NewToolResultError("name or content is required"), nil
	}

	doc, err := sc.Client().UpdateDoc(ctx, docID, req)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(map[string]any{
		"id":      doc.ID,
		"name":    doc.Name,
		"updated": true,
	})
}
