package workspace_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/common"
)

// RegisterWorkspaceTools registers the hierarchy and user tools with the MCP server.
func RegisterWorkspaceTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerHierarchyTools(s, sc); err != nil {
		return fmt.Errorf("failed to register hierarchy tools: %w", err)
	}
	if err := registerUserTools(s, sc); err != nil {
		return fmt.Errorf("failed to register user tools: %w", err)
	}
	return nil
}

func workspaceParam() mcp.ToolOption {
	return mcp.WithString("workspace_id",
		mcp.Description("Workspace ID (default: configured or first workspace)"),
	)
}

func registerHierarchyTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listSpacesTool := mcp.NewTool("list_spaces",
		mcp.WithDescription("List the spaces of a workspace"),
		workspaceParam(),
		mcp.WithBoolean("archived", mcp.Description("List archived spaces instead (default: false)")),
	)
	s.AddTool(listSpacesTool, common.InstrumentedToolHandlerWithTarget(
		"list_spaces", instrumentation.ResourceSpace, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListSpaces(ctx, request, sc)
		}))

	listFoldersTool := mcp.NewTool("list_folders",
		mcp.WithDescription("List the folders of a space with their lists"),
		mcp.WithString("space_id",
			mcp.Required(),
			mcp.Description("Space ID"),
		),
	)
	s.AddTool(listFoldersTool, common.InstrumentedToolHandlerWithTarget(
		"list_folders", instrumentation.ResourceFolder, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListFolders(ctx, request, sc)
		}))

	listListsTool := mcp.NewTool("list_lists",
		mcp.WithDescription("List the lists of a folder or the folderless lists of a space. Without either, the folderless lists of every space are returned"),
		mcp.WithString("folder_id", mcp.Description("Folder ID")),
		mcp.WithString("space_id", mcp.Description("Space ID")),
		workspaceParam(),
	)
	s.AddTool(listListsTool, common.InstrumentedToolHandlerWithTarget(
		"list_lists", instrumentation.ResourceList, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListLists(ctx, request, sc)
		}))

	findListTool := mcp.NewTool("find_list_by_name",
		mcp.WithDescription("Find a list by name, ignoring case"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("List name"),
		),
		mcp.WithString("space_id", mcp.Description("Only search this space")),
		workspaceParam(),
	)
	s.AddTool(findListTool, common.InstrumentedToolHandlerWithTarget(
		"find_list_by_name", instrumentation.ResourceList, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindListByName(ctx, request, sc)
		}))

	return nil
}

type spaceView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Private  bool     `json:"private"`
	Statuses []string `json:"statuses,omitempty"`
}

type listView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TaskCount int64  `json:"task_count"`
	Space     string `json:"space,omitempty"`
	Folder    string `json:"folder,omitempty"`
}

func newListView(l clickup.List) listView {
	return listView{
		ID:        l.ID,
		Name:      l.Name,
		TaskCount: int64(l.TaskCount),
		Space:     l.Space.Name,
		Folder:    l.Folder.Name,
	}
}

func listViews(lists []clickup.List) []listView {
	views := make([]listView, 0, len(lists))
	for _, l := range lists {
		views = append(views, newListView(l))
	}
	return views
}

type folderView struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	TaskCount int64      `json:"task_count"`
	Lists     []listView `json:"lists"`
}

func handleListSpaces(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	spaces, err := sc.Client().GetSpaces(ctx, common.StringArg(args, "workspace_id"), common.BoolArg(args, "archived", false))
	if err != nil {
		return common.ErrorResult(err), nil
	}

	views := make([]spaceView, 0, len(spaces))
	for _, sp := range spaces {
		v := spaceView{ID: sp.ID, Name: sp.Name, Private: sp.Private}
		for _, st := range sp.Statuses {
			v.Statuses = append(v.Statuses, st.Status)
		}
		views = append(views, v)
	}
	return common.JSONResult(map[string]any{
		"spaces": views,
		"count":  len(views),
	})
}

func handleListFolders(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	spaceID, err := common.RequiredString(args, "space_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	folders, err := sc.Client().GetFolders(ctx, spaceID, false)
	if err != nil {
		return common.ErrorResult(err), nil
	}

	views := make([]folderView, 0, len(folders))
	for _, f := range folders {
		views = append(views, folderView{
			ID:        f.ID,
			Name:      f.Name,
			TaskCount: int64(f.TaskCount),
			Lists:     listViews(f.Lists),
		})
	}
	return common.JSONResult(map[string]any{
		"space_id": spaceID,
		"folders":  views,
		"count":    len(views),
	})
}

func handleListLists(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	client := sc.Client()

	folderID := common.StringArg(args, "folder_id")
	spaceID := common.StringArg(args, "space_id")

	var lists []clickup.List
	if folderID != "" || spaceID != "" {
		var err error
		if lists, err = client.GetLists(ctx, folderID, spaceID, false); err != nil {
			return common.ErrorResult(err), nil
		}
	} else {
		spaces, err := client.GetSpaces(ctx, common.StringArg(args, "workspace_id"), false)
		if err != nil {
			return common.ErrorResult(err), nil
		}
		for _, sp := range spaces {
			spaceLists, err := client.GetLists(ctx, "", sp.ID, false)
			if err != nil {
				return common.ErrorResult(err), nil
			}
			for i := range spaceLists {
				if spaceLists[i].Space.Name == "" {
					spaceLists[i].Space = clickup.Ref{ID: sp.ID, Name: sp.Name}
				}
			}
			lists = append(lists, spaceLists...)
		}
	}

	return common.JSONResult(map[string]any{
		"lists": listViews(lists),
		"count": len(lists),
	})
}

func handleFindListByName(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	list, err := sc.Client().FindListByName(ctx, name, common.StringArg(args, "space_id"), common.StringArg(args, "workspace_id"))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if list == nil {
		return mcp.NewToolResultError(fmt.Sprintf("list %q not found", name)), nil
	}

	return common.JSONResult(struct {
		listView
		Found bool `json:"found"`
	}{newListView(*list), true})
}

func registerUserTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listUsersTool := mcp.NewTool("list_users",
		mcp.WithDescription("List the members of a workspace"),
		workspaceParam(),
	)
	s.AddTool(listUsersTool, common.InstrumentedToolHandlerWithTarget(
		"list_users", instrumentation.ResourceUser, instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListUsers(ctx, request, sc)
		}))

	currentUserTool := mcp.NewTool("get_current_user",
		mcp.WithDescription("Get the user that owns the API key"),
	)
	s.AddTool(currentUserTool, common.InstrumentedToolHandlerWithTarget(
		"get_current_user", instrumentation.ResourceUser, instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetCurrentUser(ctx, request, sc)
		}))

	findUserTool := mcp.NewTool("find_user_by_name",
		mcp.WithDescription("Find workspace members whose username or email contains the given text, ignoring case"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Part of a username or email"),
		),
		workspaceParam(),
	)
	s.AddTool(findUserTool, common.InstrumentedToolHandlerWithTarget(
		"find_user_by_name", instrumentation.ResourceUser, instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindUserByName(ctx, request, sc)
		}))

	return nil
}

func handleListUsers(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	users, err := sc.Client().GetWorkspaceMembers(ctx, common.StringArg(request.GetArguments(), "workspace_id"))
	if err != nil {
		return common.ErrorResult(err), nil
	}
	if users == nil {
		users = []clickup.User{}
	}
	return common.JSONResult(map[string]any{
		"users": users,
		"count": len(users),
	})
}

func handleGetCurrentUser(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	user, err := sc.Client().GetCurrentUser(ctx)
	if err != nil {
		return common.ErrorResult(err), nil
	}
	return common.JSONResult(user)
}

// matchUsers returns the users whose username or email contains query, ignoring case.
func matchUsers(users []clickup.User, query string) []clickup.User {
	query = strings.ToLower(query)
	matches := []clickup.User{}
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Username), query) || strings.Contains(strings.ToLower(u.Email), query) {
			matches = append(matches, u)
		}
	}
	return matches
}

func handleFindUserByName(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := common.RequiredString(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	users, err := sc.Client().GetWorkspaceMembers(ctx, common.StringArg(args, "workspace_id"))
	if err != nil {
		return common.ErrorResult(err), nil
	}

	matches := matchUsers(users, name)
	if len(matches) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("no user found matching %q", name)), nil
	}
	return common.JSONResult(map[string]any{
		"matches": matches,
		"count":   len(matches),
		"found":   true,
	})
}
