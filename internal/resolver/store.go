package resolver

import (
	"context"

	"github.com/teemow/clickup-mcp/internal/clickup"
)

// ClientStore adapts a clickup.Client to TaskStore.
type ClientStore struct {
	client *clickup.Client
	// workspaceID scopes searches; empty uses the client's default workspace.
	workspaceID string
}

// NewClientStore returns a TaskStore backed by client.
func NewClientStore(client *clickup.Client) *ClientStore {
	return &ClientStore{client: client}
}

// InWorkspace returns a copy of the store that searches workspaceID.
func (s *ClientStore) InWorkspace(workspaceID string) *ClientStore {
	return &ClientStore{client: s.client, workspaceID: workspaceID}
}

func (s *ClientStore) FetchByID(ctx context.Context, id string, opts FetchOptions) (*clickup.Task, error) {
	return s.client.GetTask(ctx, id, clickup.GetTaskOptions{IncludeSubtasks: opts.IncludeSubtasks})
}

func (s *ClientStore) FetchByCustomID(ctx context.Context, id string, opts FetchOptions) (*clickup.Task, error) {
	return s.client.GetTask(ctx, id, clickup.GetTaskOptions{
		IncludeSubtasks: opts.IncludeSubtasks,
		CustomTaskIDs:   true,
		TeamID:          opts.ScopeID,
	})
}

func (s *ClientStore) SearchByText(ctx context.Context, query string) ([]clickup.Task, error) {
	return s.client.SearchTasks(ctx, clickup.SearchTasksParams{
		WorkspaceID:   s.workspaceID,
		Query:         query,
		IncludeClosed: true,
	})
}
