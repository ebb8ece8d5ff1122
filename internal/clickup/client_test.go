package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/clickup-mcp/internal/logging"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := []Option{
		WithBaseURL(srv.URL),
		WithHTTPClient(srv.Client()),
		WithRateLimit(0),
		WithLogger(logging.DiscardLogger()),
	}
	c, err := NewClient("pk_test_token", append(base, opts...)...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient("   ")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_SetsHeaders(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/user", r.URL.Path)
		assert.Equal(t, "pk_test_token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 7, "username": "jane"}})
	}))

	user, err := c.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "jane", user.DisplayName())
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   ErrorKind
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "not found",
			status:     http.StatusNotFound,
			body:       `{"err":"Task not found","ECODE":"ITEM_013"}`,
			wantKind:   KindNotFound,
			wantStatus: 404,
			wantMsg:    "API error: 404 - Task not found (ITEM_013)",
		},
		{
			name:       "not found code on 401",
			status:     http.StatusUnauthorized,
			body:       `{"err":"Team not authorized","ECODE":"ITEM_015"}`,
			wantKind:   KindNotFound,
			wantStatus: 401,
		},
		{
			name:       "unauthorized",
			status:     http.StatusUnauthorized,
			body:       `{"err":"Token invalid","ECODE":"OAUTH_025"}`,
			wantKind:   KindUnauthorized,
			wantStatus: 401,
		},
		{
			name:       "rate limited",
			status:     http.StatusTooManyRequests,
			body:       `{"err":"Rate limit reached"}`,
			wantKind:   KindRateLimited,
			wantStatus: 429,
		},
		{
			name:       "server error with plain body",
			status:     http.StatusBadGateway,
			body:       "upstream down",
			wantKind:   KindServer,
			wantStatus: 502,
			wantMsg:    "API error: 502 - upstream down",
		},
		{
			name:       "bad request with empty body",
			status:     http.StatusBadRequest,
			body:       "",
			wantKind:   KindBadRequest,
			wantStatus: 400,
			wantMsg:    "API error: 400 - Bad Request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.GetTask(context.Background(), "abc", GetTaskOptions{})
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.wantStatus, StatusCode(err))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, apiErr.Error())
			}
		})
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	}))

	_, err := c.GetTask(context.Background(), "abc", GetTaskOptions{})
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))
	assert.False(t, IsNotFound(err))
}

func TestClient_Timeout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.GetTask(ctx, "abc", GetTaskOptions{})
	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestClient_GetTaskQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/task/GH-3761", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "true", q.Get("custom_task_ids"))
		assert.Equal(t, "9001", q.Get("team_id"))
		assert.Equal(t, "true", q.Get("include_subtasks"))
		writeJSON(w, http.StatusOK, map[string]any{"id": "86abc", "custom_id": "GH-3761", "name": "Fix"})
	}))

	task, err := c.GetTask(context.Background(), "GH-3761", GetTaskOptions{
		IncludeSubtasks: true,
		CustomTaskIDs:   true,
		TeamID:          "9001",
	})
	require.NoError(t, err)
	assert.Equal(t, "86abc", task.ID)
}

func TestClient_WorkspaceID(t *testing.T) {
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusOK, map[string]any{"teams": []map[string]any{{"id": "111", "name": "Acme"}, {"id": "222"}}})
	})

	t.Run("explicit wins", func(t *testing.T) {
		c := newTestClient(t, handler, WithDefaultWorkspace("999"))
		id, err := c.WorkspaceID(context.Background(), "555")
		require.NoError(t, err)
		assert.Equal(t, "555", id)
	})

	t.Run("configured default", func(t *testing.T) {
		c := newTestClient(t, handler, WithDefaultWorkspace("999"))
		id, err := c.WorkspaceID(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, "999", id)
	})

	t.Run("detected and cached", func(t *testing.T) {
		calls.Store(0)
		c := newTestClient(t, handler)
		for i := 0; i < 3; i++ {
			id, err := c.WorkspaceID(context.Background(), "")
			require.NoError(t, err)
			assert.Equal(t, "111", id)
		}
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("cache expires", func(t *testing.T) {
		calls.Store(0)
		c := newTestClient(t, handler, WithWorkspaceCacheTTL(time.Nanosecond))
		_, err := c.WorkspaceID(context.Background(), "")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		_, err = c.WorkspaceID(context.Background(), "")
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestClient_WorkspaceID_NoWorkspaces(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"teams": []any{}})
	}))

	_, err := c.WorkspaceID(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_GetWorkspaceMembers(t *testing.T) {
	t.Run("groups deduplicated", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/group", r.URL.Path)
			assert.Equal(t, "111", r.URL.Query().Get("team_id"))
			writeJSON(w, http.StatusOK, map[string]any{"groups": []any{
				map[string]any{"members": []any{
					map[string]any{"id": 1, "username": "a"},
					map[string]any{"id": 2, "username": "b"},
				}},
				map[string]any{"members": []any{
					map[string]any{"id": 2, "username": "b"},
				}},
			}})
		}), WithDefaultWorkspace("111"))

		users, err := c.GetWorkspaceMembers(context.Background(), "")
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "a", users[0].Username)
		assert.Equal(t, "b", users[1].Username)
	})

	t.Run("falls back to team then current user", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v2/group":
				writeJSON(w, http.StatusForbidden, map[string]any{"err": "plan", "ECODE": "GROUP_001"})
			case "/v2/team/111":
				writeJSON(w, http.StatusOK, map[string]any{"team": map[string]any{"id": "111", "members": []any{}}})
			case "/v2/user":
				writeJSON(w, http.StatusOK, map[string]any{"user": map[string]any{"id": 9, "username": "me"}})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		users, err := c.GetWorkspaceMembers(context.Background(), "111")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, int64(9), users[0].ID)
	})

	t.Run("team members", func(t *testing.T) {
		c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/v2/group":
				writeJSON(w, http.StatusOK, map[string]any{"groups": []any{}})
			case "/v2/team/111":
				writeJSON(w, http.StatusOK, map[string]any{"team": map[string]any{"id": "111", "members": []any{
					map[string]any{"user": map[string]any{"id": 3, "username": "c"}},
				}}})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		users, err := c.GetWorkspaceMembers(context.Background(), "111")
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "c", users[0].Username)
	})
}

func TestClient_FindListByName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/space/s1/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"lists": []any{map[string]any{"id": "l1", "name": "Inbox"}}})
	})
	mux.HandleFunc("/v2/space/s1/folder", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"folders": []any{
			map[string]any{"id": "f1", "name": "Eng", "lists": []any{map[string]any{"id": "l2", "name": "Sprint 12"}}},
			map[string]any{"id": "f2", "name": "Ops"},
		}})
	})
	mux.HandleFunc("/v2/folder/f2/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"lists": []any{map[string]any{"id": "l3", "name": "Oncall"}}})
	})
	c := newTestClient(t, mux)
	ctx := context.Background()

	list, err := c.FindListByName(ctx, "inbox", "s1", "")
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Equal(t, "l1", list.ID)

	list, err = c.FindListByName(ctx, "SPRINT 12", "s1", "")
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Equal(t, "l2", list.ID)

	list, err = c.FindListByName(ctx, "oncall", "s1", "")
	require.NoError(t, err)
	require.NotNil(t, list)
	assert.Equal(t, "l3", list.ID)

	list, err = c.FindListByName(ctx, "missing", "s1", "")
	require.NoError(t, err)
	assert.Nil(t, list)

	_, err = c.FindListByName(ctx, "  ", "s1", "")
	assert.Error(t, err)
}

func TestClient_GetTasks_SkipsFailingLists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v2/folder/f1/list", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"lists": []any{
			map[string]any{"id": "ok"},
			map[string]any{"id": "broken"},
		}})
	})
	mux.HandleFunc("/v2/list/ok/task", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, []string{"open", "review"}, r.URL.Query()["statuses[]"])
		assert.Equal(t, "true", r.URL.Query().Get("include_closed"))
		writeJSON(w, http.StatusOK, map[string]any{"tasks": []any{map[string]any{"id": "t1", "name": "One"}}})
	})
	mux.HandleFunc("/v2/list/broken/task", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"err": "boom"})
	})
	c := newTestClient(t, mux)

	tasks, err := c.GetTasks(context.Background(), TaskFilter{
		FolderID:      "f1",
		Statuses:      []string{"open", "review"},
		IncludeClosed: true,
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t1", tasks[0].ID)

	_, err = c.GetTasks(context.Background(), TaskFilter{})
	assert.Error(t, err)
}

func TestClient_UpdateTask(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"status":    "done",
			"assignees": map[string]any{"add": []any{float64(5)}, "rem": []any{float64(6)}},
		}, body)
		writeJSON(w, http.StatusOK, map[string]any{"id": "t1", "status": map[string]any{"status": "done", "type": "closed"}})
	}))

	status := "done"
	task, err := c.UpdateTask(context.Background(), "t1", UpdateTaskRequest{
		Status:    &status,
		Assignees: &AssigneeChanges{Add: []int64{5}, Remove: []int64{6}},
	})
	require.NoError(t, err)
	assert.True(t, task.Status.Closed())

	_, err = c.UpdateTask(context.Background(), "t1", UpdateTaskRequest{})
	assert.Error(t, err)
}

func TestClient_CreateTaskComment(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/task/t1/comment", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["comment_text"])
		_, hasAssignee := body["assignee"]
		assert.False(t, hasAssignee)
		writeJSON(w, http.StatusOK, map[string]any{"id": 458, "date": 1709251200000})
	}))

	comment, err := c.CreateTaskComment(context.Background(), "t1", "hello", 0, false)
	require.NoError(t, err)
	assert.Equal(t, "458", comment.ID)
	assert.Equal(t, "hello", comment.CommentText)
	assert.Equal(t, int64(1709251200000), comment.Date.Millis())
}

func TestClient_DocsDegradeToEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/workspaces/111/docs", r.URL.Path)
		writeJSON(w, http.StatusNotFound, map[string]any{"err": "Route not found"})
	}))

	docs, err := c.SearchDocs(context.Background(), "111", "roadmap")
	require.NoError(t, err)
	assert.Empty(t, docs)
	assert.NotNil(t, docs)
}

func TestClient_CreateTimeEntry(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/team/111/time_entries", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "te1"}})
	}))

	entry, err := c.CreateTimeEntry(context.Background(), "111", CreateTimeEntryRequest{
		TaskID:   "t1",
		Start:    1709251200000,
		Duration: 5_400_000,
	})
	require.NoError(t, err)
	assert.Equal(t, "te1", entry.ID)
	assert.Equal(t, FlexInt(5_400_000), entry.Duration)
	require.NotNil(t, entry.Task)
	assert.Equal(t, "t1", entry.Task.ID)

	_, err = c.CreateTimeEntry(context.Background(), "111", CreateTimeEntryRequest{Duration: 0})
	assert.Error(t, err)
}
