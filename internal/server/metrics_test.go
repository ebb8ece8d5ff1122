package server

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/clickup-mcp/internal/instrumentation"
)

func newTestProvider(t *testing.T, enabled bool, exporter string) *instrumentation.Provider {
	t.Helper()
	provider, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{
		ServiceName:     "clickup-mcp-test",
		ServiceVersion:  "0.0.0",
		Enabled:         enabled,
		MetricsExporter: exporter,
		TracingExporter: instrumentation.ExporterNone,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

func TestNewMetricsServer(t *testing.T) {
	tests := []struct {
		name        string
		enabled     bool
		exporter    string
		nilProvider bool
		addr        string
		wantAddr    string
		errContains string
	}{
		{name: "prometheus provider", enabled: true, exporter: instrumentation.ExporterPrometheus, addr: ":9191", wantAddr: ":9191"},
		{name: "empty addr falls back to default", enabled: true, exporter: instrumentation.ExporterPrometheus, wantAddr: DefaultMetricsAddr},
		{name: "missing provider", nilProvider: true, errContains: "instrumentation provider is required"},
		{name: "stdout exporter", enabled: true, exporter: instrumentation.ExporterStdout, errContains: "does not export prometheus metrics"},
		{name: "disabled provider", exporter: instrumentation.ExporterPrometheus, errContains: "instrumentation provider is not enabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := MetricsServerConfig{Addr: tt.addr, Enabled: true}
			if !tt.nilProvider {
				cfg.InstrumentationProvider = newTestProvider(t, tt.enabled, tt.exporter)
			}

			srv, err := NewMetricsServer(cfg)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, srv.Addr())
			assert.Equal(t, tt.wantAddr, srv.ListenAddr())
		})
	}
}

func TestMetricsServer_ServesProbesAndMetrics(t *testing.T) {
	provider := newTestProvider(t, true, instrumentation.ExporterPrometheus)
	provider.Metrics().RecordToolInvocation(context.Background(), "get_task", "success", "", 20*time.Millisecond)

	srv, err := NewMetricsServer(MetricsServerConfig{
		Addr:                    "127.0.0.1:0",
		Enabled:                 true,
		InstrumentationProvider: provider,
		HealthChecker:           NewHealthChecker(nil),
	})
	require.NoError(t, err)

	ready := make(chan struct{})
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.StartWithReadySignal(ready) }()

	select {
	case <-ready:
	case err := <-serveErr:
		t.Fatalf("metrics server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not start")
	}

	base := "http://" + srv.ListenAddr()
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(base + path)
		require.NoError(t, err, path)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "mcp_tool_invocations_total")
	assert.Contains(t, string(body), `tool="get_task"`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-serveErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Error("metrics server did not stop after Shutdown")
	}
}

func TestMetricsServer_ShutdownBeforeStart(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		Enabled:                 true,
		InstrumentationProvider: newTestProvider(t, true, instrumentation.ExporterPrometheus),
	})
	require.NoError(t, err)
	assert.NoError(t, srv.Shutdown(context.Background()))
}
