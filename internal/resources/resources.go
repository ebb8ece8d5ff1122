package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/server"
)

const (
	ProfileURI    = "clickup://user/profile"
	WorkspacesURI = "clickup://workspaces"
	IDPatternsURI = "clickup://config/id-patterns"
)

// RegisterResources registers the account resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("The ClickUp user that owns the API key"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUserProfile(ctx, request, sc)
	})

	workspacesResource := mcp.NewResource(
		WorkspacesURI,
		"Workspaces",
		mcp.WithResourceDescription("Workspaces the API key can access, and the default one"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(workspacesResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleWorkspaces(ctx, request, sc)
	})

	patternsResource := mcp.NewResource(
		IDPatternsURI,
		"Custom Task ID Patterns",
		mcp.WithResourceDescription("Custom task ID prefixes recognized in task references, e.g. gh-123"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(patternsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleIDPatterns(ctx, request, sc)
	})

	return nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleUserProfile serves the user verified at startup, fetching it when the server
// started without verification.
func handleUserProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	user := sc.CurrentUser()
	if user == nil {
		var err error
		if user, err = sc.Client().GetCurrentUser(ctx); err != nil {
			return nil, fmt.Errorf("failed to get user profile: %w", err)
		}
		sc.SetCurrentUser(user)
	}
	return jsonContents(request.Params.URI, user)
}

type workspaceView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
	Default bool   `json:"default"`
}

func handleWorkspaces(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	workspaces, err := sc.Client().GetWorkspaces(ctx)
	if err != nil {
		return nil, err
	}
	defaultID, err := sc.Client().WorkspaceID(ctx, "")
	if err != nil {
		return nil, err
	}

	views := make([]workspaceView, 0, len(workspaces))
	for _, w := range workspaces {
		views = append(views, workspaceView{
			ID:      w.ID,
			Name:    w.Name,
			Members: len(w.Members),
			Default: w.ID == defaultID,
		})
	}
	return jsonContents(request.Params.URI, map[string]any{
		"workspaces":           views,
		"default_workspace_id": defaultID,
	})
}

type patternView struct {
	Prefix  string `json:"prefix"`
	Label   string `json:"label"`
	Example string `json:"example"`
}

func handleIDPatterns(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	table := sc.Resolver().Patterns()

	views := []patternView{}
	for _, prefix := range table.Prefixes() {
		label, _ := table.Label(prefix)
		views = append(views, patternView{Prefix: prefix, Label: label, Example: prefix + "-123"})
	}
	return jsonContents(request.Params.URI, map[string]any{
		"patterns":            views,
		"scope_id":            sc.Config().ScopeID(),
		"strict_search_match": sc.Config().StrictSearchMatch,
	})
}
