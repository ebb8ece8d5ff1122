package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/teemow/clickup-mcp/internal/clickup"
)

func doRequest(t *testing.T, h http.Handler) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return rec.Code, body
}

func TestHealthChecker_Liveness(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	code, body := doRequest(t, h.LivenessHandler())
	if code != http.StatusOK || body["status"] != healthStatusOK {
		t.Errorf("liveness = %d %v, want 200 ok", code, body)
	}
}

func TestHealthChecker_Readiness(t *testing.T) {
	sc := newTestServerContext(t, newFakeClickUp(t, http.StatusOK))
	h := NewHealthChecker(sc)

	code, body := doRequest(t, h.ReadinessHandler())
	if code != http.StatusServiceUnavailable {
		t.Errorf("readiness before verification = %d, want 503", code)
	}
	checks := body["checks"].(map[string]any)
	if checks["credentials"] != healthStatusUnverified {
		t.Errorf("credentials check = %v", checks["credentials"])
	}

	sc.SetCurrentUser(&clickup.User{ID: 1})
	code, _ = doRequest(t, h.ReadinessHandler())
	if code != http.StatusOK {
		t.Errorf("readiness after verification = %d, want 200", code)
	}

	h.SetReady(false)
	code, _ = doRequest(t, h.ReadinessHandler())
	if code != http.StatusServiceUnavailable {
		t.Errorf("readiness when not ready = %d, want 503", code)
	}

	h.SetReady(true)
	_ = sc.Shutdown()
	code, body = doRequest(t, h.ReadinessHandler())
	if code != http.StatusServiceUnavailable || body["checks"].(map[string]any)["shutdown"] != healthStatusShuttingDown {
		t.Errorf("readiness during shutdown = %d %v", code, body)
	}
}

func TestHealthChecker_DetailedRunsChecks(t *testing.T) {
	h := NewHealthChecker(nil)
	h.AddCheck("ok", func(context.Context) error { return nil })

	code, body := doRequest(t, h.DetailedHealthHandler())
	if code != http.StatusOK || body["status"] != healthStatusOK {
		t.Errorf("detailed = %d %v, want 200 ok", code, body)
	}

	h.AddCheck("broken", func(context.Context) error { return errors.New("boom") })
	code, body = doRequest(t, h.DetailedHealthHandler())
	if code != http.StatusServiceUnavailable || body["status"] != healthStatusFailed {
		t.Errorf("detailed with failing check = %d %v", code, body)
	}
	result, _ := body["checks"].(map[string]any)["broken"].(string)
	if !strings.Contains(result, "boom") {
		t.Errorf("broken check = %q, want error text", result)
	}
}

func TestClickUpHealthChecker(t *testing.T) {
	tests := []struct {
		name       string
		userStatus int
		wantCode   int
	}{
		{"valid key", http.StatusOK, http.StatusOK},
		{"invalid key", http.StatusUnauthorized, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t, newFakeClickUp(t, tt.userStatus), WithReadOnly(true))
			h := NewClickUpHealthChecker(sc)

			code, body := doRequest(t, h.DetailedHealthHandler())
			if code != tt.wantCode {
				t.Errorf("detailed = %d, want %d (%v)", code, tt.wantCode, body)
			}
			if body["read_only"] != true {
				t.Errorf("read_only = %v, want true", body["read_only"])
			}
		})
	}
}
