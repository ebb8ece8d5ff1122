package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/config"
	"github.com/teemow/clickup-mcp/internal/logging"
)

// newFakeClickUp serves /v2/user with the given status.
func newFakeClickUp(t *testing.T, userStatus int) *clickup.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path != "/v2/user" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"err":"Route not found"}`))
			return
		}
		w.WriteHeader(userStatus)
		if userStatus == http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{"user": map[string]any{"id": 1, "username": "jane", "email": "jane@example.com"}})
		} else {
			_, _ = w.Write([]byte(`{"err":"Token invalid","ECODE":"OAUTH_025"}`))
		}
	}))
	t.Cleanup(srv.Close)

	client, err := clickup.NewClient("pk_test",
		clickup.WithBaseURL(srv.URL),
		clickup.WithHTTPClient(srv.Client()),
		clickup.WithRateLimit(0),
		clickup.WithTimeout(5*time.Second),
		clickup.WithLogger(logging.DiscardLogger()),
	)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return client
}

func newTestServerContext(t *testing.T, client *clickup.Client, opts ...Option) *ServerContext {
	t.Helper()
	cfg := &config.Config{
		APIKey:        "pk_test",
		DefaultTeamID: "9001",
		IDPatterns:    config.DefaultIDPatterns(),
		Timeout:       time.Second,
	}
	sc, err := NewServerContext(context.Background(), cfg, client, opts...)
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}
