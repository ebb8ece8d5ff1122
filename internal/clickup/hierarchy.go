package clickup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/logging"
)

// GetCurrentUser returns the user that owns the API token.
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/user",
		resource: instrumentation.ResourceUser, operation: instrumentation.OperationGet,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return &resp.User, nil
}

// GetWorkspaces lists the workspaces (teams) the token can access.
func (c *Client) GetWorkspaces(ctx context.Context) ([]Workspace, error) {
	var resp struct {
		Teams []Workspace `json:"teams"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/team",
		resource: instrumentation.ResourceWorkspace, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	return resp.Teams, nil
}

// GetWorkspaceMembers lists the members of a workspace.
//
// User groups are tried first, then the team payload; if both fail, or both are empty,
// the current user is returned on its own so callers always get someone to assign.
func (c *Client) GetWorkspaceMembers(ctx context.Context, workspaceID string) ([]User, error) {
	workspaceID, err := c.WorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if users, err := c.groupMembers(ctx, workspaceID); err == nil && len(users) > 0 {
		return users, nil
	} else if err != nil {
		c.logger.Debug("user groups unavailable, falling back to team members",
			logging.Workspace(workspaceID), logging.Err(err))
	}

	if users, err := c.teamMembers(ctx, workspaceID); err == nil && len(users) > 0 {
		return users, nil
	} else if err != nil {
		c.logger.Debug("team members unavailable, falling back to current user",
			logging.Workspace(workspaceID), logging.Err(err))
	}

	me, err := c.GetCurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace members: %w", err)
	}
	return []User{*me}, nil
}

func (c *Client) groupMembers(ctx context.Context, workspaceID string) ([]User, error) {
	var resp struct {
		Groups []struct {
			Members []Member `json:"members"`
		} `json:"groups"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/group",
		query:    url.Values{"team_id": {workspaceID}},
		resource: instrumentation.ResourceUser, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var users []User
	for _, g := range resp.Groups {
		for _, m := range g.Members {
			if m.ID == 0 || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			users = append(users, m.User)
		}
	}
	return users, nil
}

func (c *Client) teamMembers(ctx context.Context, workspaceID string) ([]User, error) {
	var resp struct {
		Team Workspace `json:"team"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/team/" + url.PathEscape(workspaceID),
		resource: instrumentation.ResourceWorkspace, operation: instrumentation.OperationGet,
	}, &resp)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(resp.Team.Members))
	for _, m := range resp.Team.Members {
		users = append(users, m.User)
	}
	return users, nil
}

// GetSpaces lists the spaces of a workspace.
func (c *Client) GetSpaces(ctx context.Context, workspaceID string, archived bool) ([]Space, error) {
	workspaceID, err := c.WorkspaceID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Spaces []Space `json:"spaces"`
	}
	err = c.do(ctx, request{
		method: http.MethodGet, path: "/team/" + url.PathEscape(workspaceID) + "/space",
		query:    url.Values{"archived": {boolString(archived)}},
		resource: instrumentation.ResourceSpace, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list spaces: %w", err)
	}
	return resp.Spaces, nil
}

func (c *Client) GetSpace(ctx context.Context, spaceID string) (*Space, error) {
	var space Space
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/space/" + url.PathEscape(spaceID),
		resource: instrumentation.ResourceSpace, operation: instrumentation.OperationGet,
	}, &space)
	if err != nil {
		return nil, fmt.Errorf("failed to get space %s: %w", spaceID, err)
	}
	return &space, nil
}

// GetFolders lists the folders of a space.
func (c *Client) GetFolders(ctx context.Context, spaceID string, archived bool) ([]Folder, error) {
	var resp struct {
		Folders []Folder `json:"folders"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/space/" + url.PathEscape(spaceID) + "/folder",
		query:    url.Values{"archived": {boolString(archived)}},
		resource: instrumentation.ResourceFolder, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return resp.Folders, nil
}

func (c *Client) GetFolder(ctx context.Context, folderID string) (*Folder, error) {
	var folder Folder
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/folder/" + url.PathEscape(folderID),
		resource: instrumentation.ResourceFolder, operation: instrumentation.OperationGet,
	}, &folder)
	if err != nil {
		return nil, fmt.Errorf("failed to get folder %s: %w", folderID, err)
	}
	return &folder, nil
}

// GetLists lists the lists of a folder, or the folderless lists of a space when folderID
// is empty.
func (c *Client) GetLists(ctx context.Context, folderID, spaceID string, archived bool) ([]List, error) {
	var path string
	switch {
	case folderID != "":
		path = "/folder/" + url.PathEscape(folderID) + "/list"
	case spaceID != "":
		path = "/space/" + url.PathEscape(spaceID) + "/list"
	default:
		return nil, errors.New("either a folder ID or a space ID is required")
	}

	var resp struct {
		Lists []List `json:"lists"`
	}
	err := c.do(ctx, request{
		method: http.MethodGet, path: path,
		query:    url.Values{"archived": {boolString(archived)}},
		resource: instrumentation.ResourceList, operation: instrumentation.OperationList,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	return resp.Lists, nil
}

func (c *Client) GetList(ctx context.Context, listID string) (*List, error) {
	var list List
	err := c.do(ctx, request{
		method: http.MethodGet, path: "/list/" + url.PathEscape(listID),
		resource: instrumentation.ResourceList, operation: instrumentation.OperationGet,
	}, &list)
	if err != nil {
		return nil, fmt.Errorf("failed to get list %s: %w", listID, err)
	}
	return &list, nil
}

// FindListByName finds a list by case-insensitive name. With a space ID only that space's
// folderless and folder lists are searched; otherwise every space of the workspace is.
// It returns nil, nil when nothing matches.
func (c *Client) FindListByName(ctx context.Context, name, spaceID, workspaceID string) (*List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("list name is required")
	}

	spaceIDs := []string{spaceID}
	if spaceID == "" {
		spaces, err := c.GetSpaces(ctx, workspaceID, false)
		if err != nil {
			return nil, err
		}
		spaceIDs = spaceIDs[:0]
		for _, s := range spaces {
			spaceIDs = append(spaceIDs, s.ID)
		}
	}

	for _, sid := range spaceIDs {
		list, err := c.findListInSpace(ctx, name, sid)
		if err != nil {
			return nil, err
		}
		if list != nil {
			return list, nil
		}
	}
	return nil, nil
}

func (c *Client) findListInSpace(ctx context.Context, name, spaceID string) (*List, error) {
	lists, err := c.GetLists(ctx, "", spaceID, false)
	if err != nil {
		return nil, err
	}
	if l := matchList(lists, name); l != nil {
		return l, nil
	}

	folders, err := c.GetFolders(ctx, spaceID, false)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		folderLists := f.Lists
		if len(folderLists) == 0 {
			folderLists, err = c.GetLists(ctx, f.ID, "", false)
			if err != nil {
				return nil, err
			}
		}
		if l := matchList(folderLists, name); l != nil {
			return l, nil
		}
	}
	return nil, nil
}

func matchList(lists []List, name string) *List {
	for i := range lists {
		if strings.EqualFold(lists[i].Name, name) {
			return &lists[i]
		}
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
