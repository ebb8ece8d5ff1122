// Package tooltest runs ClickUp tools against an in-process fake of the ClickUp API.
// It is imported by the tool packages' tests only.
package tooltest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/config"
	"github.com/teemow/clickup-mcp/internal/logging"
	"github.com/teemow/clickup-mcp/internal/server"
)

// TeamID is the workspace the fake serves and the scope ID of test configs.
const TeamID = "9001"

// Request is a request received by the fake.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

// FakeClickUp is an httptest server routing ClickUp API paths to canned handlers.
// Unrouted paths answer 404 with ClickUp's ITEM_013 error.
type FakeClickUp struct {
	Server *httptest.Server

	mux      *http.ServeMux
	mu       sync.Mutex
	requests []Request
}

func NewFakeClickUp(t *testing.T) *FakeClickUp {
	t.Helper()
	f := &FakeClickUp{mux: http.NewServeMux()}
	f.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"err": "Task not found", "ECODE": "ITEM_013"})
	})
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeClickUp) serve(w http.ResponseWriter, r *http.Request) {
	req := Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &req.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	f.mux.ServeHTTP(w, r)
}

// Handle routes a ServeMux pattern such as "GET /v2/task/{id}".
func (f *FakeClickUp) Handle(pattern string, handler http.HandlerFunc) {
	f.mux.HandleFunc(pattern, handler)
}

// JSON routes pattern to a fixed JSON response.
func (f *FakeClickUp) JSON(pattern string, status int, body any) {
	f.Handle(pattern, func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, status, body)
	})
}

// Requests returns the requests received so far.
func (f *FakeClickUp) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// RequestsTo returns the received requests with the given method and path.
func (f *FakeClickUp) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Client returns a client for the fake with rate limiting disabled.
func (f *FakeClickUp) Client(t *testing.T) *clickup.Client {
	t.Helper()
	client, err := clickup.NewClient("pk_test",
		clickup.WithBaseURL(f.Server.URL),
		clickup.WithHTTPClient(f.Server.Client()),
		clickup.WithRateLimit(0),
		clickup.WithTimeout(5*time.Second),
		clickup.WithDefaultWorkspace(TeamID),
		clickup.WithLogger(logging.DiscardLogger()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

// NewServerContext returns a server context backed by the fake, with the default ID
// patterns and TeamID as scope.
func NewServerContext(t *testing.T, f *FakeClickUp, opts ...server.Option) *server.ServerContext {
	t.Helper()
	cfg := &config.Config{
		APIKey:        "pk_test",
		DefaultTeamID: TeamID,
		IDPatterns:    config.DefaultIDPatterns(),
		Timeout:       5 * time.Second,
	}
	sc, err := server.NewServerContext(context.Background(), cfg, f.Client(t), opts...)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// NewMCPServer returns an MCP server to register tools on.
func NewMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer("clickup-mcp-test", "test", mcpserver.WithToolCapabilities(true))
}

// Result is the decoded outcome of a tool call.
type Result struct {
	Text    string
	IsError bool
}

// Decode unmarshals the result text into v.
func (r Result) Decode(t *testing.T, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(r.Text), v); err != nil {
		t.Fatalf("tool result is not JSON: %v\n%s", err, r.Text)
	}
}

// CallTool calls a registered tool through the server's JSON-RPC handler.
func CallTool(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]any) Result {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}

	var out struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	rpc(t, s, "tools/call", map[string]any{"name": name, "arguments": args}, &out)
	if out.Error != nil {
		t.Fatalf("tools/call %s failed: %s", name, out.Error.Message)
	}

	res := Result{IsError: out.Result.IsError}
	for _, c := range out.Result.Content {
		if c.Type == "text" {
			res.Text += c.Text
		}
	}
	return res
}

// ToolNames lists the registered tools, sorted.
func ToolNames(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()
	var out struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	rpc(t, s, "tools/list", map[string]any{}, &out)

	names := make([]string, 0, len(out.Result.Tools))
	for _, tool := range out.Result.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

var rpcID atomic.Int64

func rpc(t *testing.T, s *mcpserver.MCPServer, method string, params any, out any) {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      rpcID.Add(1),
		"method":  method,
		"params":  params,
	})
	if err != nil {
		t.Fatalf("failed to encode %s: %v", method, err)
	}

	resp := s.HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("failed to encode %s response: %v", method, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("failed to decode %s response: %v\n%s", method, err, data)
	}
}

// WriteJSON writes body as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Task returns a task payload the way the API encodes it.
func Task(id, customID, name, status string) map[string]any {
	task := map[string]any{
		"id":           id,
		"name":         name,
		"status":       map[string]any{"status": status, "type": "open"},
		"date_created": "1700000000000",
		"priority":     nil,
		"assignees":    []any{},
		"tags":         []any{},
		"list":         map[string]any{"id": "L1", "name": "Backlog"},
		"url":          "https://app.clickup.com/t/" + id,
	}
	if customID != "" {
		task["custom_id"] = customID
	}
	return task
}

// NotFound is ClickUp's missing-item error body.
func NotFound() map[string]string {
	return map[string]string{"err": "Task not found", "ECODE": "ITEM_013"}
}

// Errorf formats an error body with a custom message.
func Errorf(format string, args ...any) map[string]string {
	return map[string]string{"err": fmt.Sprintf(format, args...)}
}
