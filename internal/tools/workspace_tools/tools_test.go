package workspace_tools

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/tools/tooltest"
)

func setup(t *testing.T) (*tooltest.FakeClickUp, func(name string, args map[string]any) tooltest.Result) {
	t.Helper()
	fake := tooltest.NewFakeClickUp(t)
	s := tooltest.NewMCPServer()
	require.NoError(t, RegisterWorkspaceTools(s, tooltest.NewServerContext(t, fake)))
	return fake, func(name string, args map[string]any) tooltest.Result {
		return tooltest.CallTool(t, s, name, args)
	}
}

func TestRegisterWorkspaceTools(t *testing.T) {
	fake := tooltest.NewFakeClickUp(t)
	s := tooltest.NewMCPServer()
	require.NoError(t, RegisterWorkspaceTools(s, tooltest.NewServerContext(t, fake)))
	assert.Equal(t, []string{
		"find_list_by_name", "find_user_by_name", "get_current_user",
		"list_folders", "list_lists", "list_spaces", "list_users",
	}, tooltest.ToolNames(t, s))
}

func TestListSpaces(t *testing.T) {
	fake, call := setup(t)
	fake.JSON("GET /v2/team/9001/space", http.StatusOK, map[string]any{"spaces": []any{
		map[string]any{"id": "S1", "name": "Engineering", "private": false, "statuses": []any{
			map[string]any{"status": "open", "type": "open"},
			map[string]any{"status": "done", "type": "closed"},
		}},
	}})

	res := call("list_spaces", nil)
	require.False(t, res.IsError, res.Text)

	var got struct {
		Spaces []spaceView `json:"spaces"`
		Count  int         `json:"count"`
	}
	res.Decode(t, &got)
	require.Equal(t, 1, got.Count)
	assert.Equal(t, spaceView{ID: "S1", Name: "Engineering", Statuses: []string{"open", "done"}}, got.Spaces[0])
	assert.Equal(t, "false", fake.RequestsTo(http.MethodGet, "/v2/team/9001/space")[0].Query.Get("archived"))
}

func TestListFolders(t *testing.T) {
	fake, call := setup(t)
	fake.JSON("GET /v2/space/S1/folder", http.StatusOK, map[string]any{"folders": []any{
		map[string]any{"id": "F1", "name": "Q3", "task_count": "4", "lists": []any{
			map[string]any{"id": "L1", "name": "Sprint 1", "task_count": 4},
		}},
	}})

	res := call("list_folders", map[string]any{})
	assert.True(t, res.IsError)
	assert.Equal(t, "space_id is required", res.Text)

	res = call("list_folders", map[string]any{"space_id": "S1"})
	require.False(t, res.IsError, res.Text)

	var got struct {
		Folders []folderView `json:"folders"`
	}
	res.Decode(t, &got)
	require.Len(t, got.Folders, 1)
	assert.Equal(t, int64(4), got.Folders[0].TaskCount)
	assert.Equal(t, "Sprint 1", got.Folders[0].Lists[0].Name)
}

func TestListLists(t *testing.T) {
	fake, call := setup(t)
	fake.JSON("GET /v2/team/9001/space", http.StatusOK, map[string]any{"spaces": []any{
		map[string]any{"id": "S1", "name": "Engineering"},
		map[string]any{"id": "S2", "name": "Sales"},
	}})
	fake.JSON("GET /v2/space/S1/list", http.StatusOK, map[string]any{"lists": []any{
		map[string]any{"id": "L1", "name": "Bugs"},
	}})
	fake.JSON("GET /v2/space/S2/list", http.StatusOK, map[string]any{"lists": []any{
		map[string]any{"id": "L2", "name": "Leads", "space": map[string]any{"id": "S2", "name": "Sales"}},
	}})
	fake.JSON("GET /v2/folder/F1/list", http.StatusOK, map[string]any{"lists": []any{
		map[string]any{"id": "L3", "name": "Sprint 1", "folder": map[string]any{"id": "F1", "name": "Q3"}},
	}})

	var got struct {
		Lists []listView `json:"lists"`
		Count int        `json:"count"`
	}

	res := call("list_lists", nil)
	require.False(t, res.IsError, res.Text)
	res.Decode(t, &got)
	assert.Equal(t, []listView{
		{ID: "L1", Name: "Bugs", Space: "Engineering"},
		{ID: "L2", Name: "Leads", Space: "Sales"},
	}, got.Lists)

	res = call("list_lists", map[string]any{"folder_id": "F1"})
	require.False(t, res.IsError, res.Text)
	res.Decode(t, &got)
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, "Q3", got.Lists[0].Folder)
}

func TestFindListByName(t *testing.T) {
	fake, call := setup(t)
	fake.JSON("GET /v2/space/S1/list", http.StatusOK, map[string]any{"lists": []any{}})
	fake.JSON("GET /v2/space/S1/folder", http.StatusOK, map[string]any{"folders": []any{
		map[string]any{"id": "F1", "name": "Q3", "lists": []any{
			map[string]any{"id": "L3", "name": "Sprint 1"},
		}},
	}})

	res := call("find_list_by_name", map[string]any{"name": "SPRINT 1", "space_id": "S1"})
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, `"id": "L3"`)
	assert.Contains(t, res.Text, `"found": true`)

	res = call("find_list_by_name", map[string]any{"name": "Sprint 9", "space_id": "S1"})
	assert.True(t, res.IsError)
	assert.Equal(t, `list "Sprint 9" not found`, res.Text)
}

func TestUserTools(t *testing.T) {
	fake, call := setup(t)
	fake.JSON("GET /v2/group", http.StatusOK, map[string]any{"groups": []any{
		map[string]any{"members": []any{
			map[string]any{"id": 1, "username": "Jane Doe", "email": "jane@example.com"},
			map[string]any{"id": 2, "username": "Bob", "email": "bob@janeway.io"},
			map[string]any{"id": 3, "username": "Alice", "email": "alice@example.com"},
		}},
	}})
	fake.JSON("GET /v2/user", http.StatusOK, map[string]any{"user": map[string]any{"id": 1, "username": "Jane Doe"}})

	res := call("list_users", nil)
	require.False(t, res.IsError, res.Text)
	assert.Contains(t, res.Text, `"count": 3`)

	res = call("get_current_user", nil)
	require.False(t, res.IsError, res.Text)
	var me clickup.User
	res.Decode(t, &me)
	assert.Equal(t, int64(1), me.ID)

	res = call("find_user_by_name", map[string]any{"name": "jane"})
	require.False(t, res.IsError, res.Text)
	var found struct {
		Matches []clickup.User `json:"matches"`
	}
	res.Decode(t, &found)
	require.Len(t, found.Matches, 2)
	assert.Equal(t, int64(2), found.Matches[1].ID)

	res = call("find_user_by_name", map[string]any{"name": "zed"})
	assert.True(t, res.IsError)
	assert.Equal(t, `no user found matching "zed"`, res.Text)
}

func TestMatchUsers(t *testing.T) {
	users := []clickup.User{{ID: 1, Username: "Jane"}, {ID: 2, Email: "JANE@x.io"}, {ID: 3, Username: "Bob"}}
	assert.Len(t, matchUsers(users, "jane"), 2)
	assert.Empty(t, matchUsers(users, "carol"))
	assert.NotNil(t, matchUsers(nil, "x"))
}
