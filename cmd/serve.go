package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/config"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/logging"
	"github.com/teemow/clickup-mcp/internal/resources"
	"github.com/teemow/clickup-mcp/internal/server"
	"github.com/teemow/clickup-mcp/internal/tools/analytics_tools"
	"github.com/teemow/clickup-mcp/internal/tools/doc_tools"
	"github.com/teemow/clickup-mcp/internal/tools/task_tools"
	"github.com/teemow/clickup-mcp/internal/tools/time_tools"
	"github.com/teemow/clickup-mcp/internal/tools/workspace_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions are the settings of the serve command after flags and environment are merged.
type serveOptions struct {
	transport string
	httpAddr  string
	debug     bool
	readOnly  bool
	metrics   MetricsConfig
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server to provide ClickUp tools for AI assistants.

Supports multiple transports:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport with health endpoints

The API key is verified against ClickUp before the server starts.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyServeEnv(cmd, &opts); err != nil {
				return err
			}
			return runServe(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http. Can also use MCP_TRANSPORT env var.")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", server.DefaultHTTPAddr, "HTTP server address (for streamable-http transport). Can also use MCP_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&opts.readOnly, "read-only", false, "Only register tools that do not modify ClickUp")
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

// applyServeEnv loads settings from environment variables.
// Environment variables only override flag values when the flag was not explicitly set.
func applyServeEnv(cmd *cobra.Command, opts *serveOptions) error {
	if !cmd.Flags().Changed("transport") {
		if v := os.Getenv("MCP_TRANSPORT"); v != "" {
			opts.transport = v
		}
	}
	if !cmd.Flags().Changed("http-addr") {
		if v := os.Getenv("MCP_HTTP_ADDR"); v != "" {
			opts.httpAddr = v
		}
	}
	if !cmd.Flags().Changed("metrics-enabled") {
		if v := os.Getenv("METRICS_ENABLED"); v != "" {
			enabled, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid METRICS_ENABLED value %q: %w", v, err)
			}
			opts.metrics.Enabled = enabled
		}
	}
	if !cmd.Flags().Changed("metrics-addr") {
		if v := os.Getenv("METRICS_ADDR"); v != "" {
			opts.metrics.Addr = v
		}
	}

	switch opts.transport {
	case transportStdio, transportStreamableHTTP:
		return nil
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", opts.transport)
	}
}

// newLogger logs to stderr so the stdio transport keeps stdout for protocol messages.
func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newClickUpClient(cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics) (*clickup.Client, error) {
	opts := []clickup.Option{
		clickup.WithTimeout(cfg.Timeout),
		clickup.WithRateLimit(cfg.RateLimit),
		clickup.WithDefaultWorkspace(cfg.DefaultWorkspaceID),
		clickup.WithWorkspaceCacheTTL(cfg.CacheDuration()),
		clickup.WithLogger(logging.NewSlogAdapter(logger)),
		clickup.WithMetrics(metrics),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, clickup.WithBaseURL(cfg.BaseURL))
	}
	return clickup.NewClient(cfg.APIKey, opts...)
}

func runServe(opts serveOptions) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(opts.debug)
	slog.SetDefault(logger)

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("instrumentation shutdown failed", logging.Err(err))
		}
	}()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debug("configuration loaded", "source", cfg.Source, "id_patterns", len(cfg.IDPatterns))

	client, err := newClickUpClient(cfg, logger, provider.Metrics())
	if err != nil {
		return fmt.Errorf("failed to create ClickUp client: %w", err)
	}

	user, err := client.GetCurrentUser(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to verify ClickUp credentials: %w", err)
	}
	logger.Info("authenticated with ClickUp", "user", user.Username, logging.UserHash(user.Email))

	serverContext, err := server.NewServerContext(shutdownCtx, cfg, client,
		server.WithReadOnly(opts.readOnly),
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext.SetCurrentUser(user)

	// Set audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging))
	}

	healthChecker := server.NewClickUpHealthChecker(serverContext)

	// Start metrics server if enabled and not in stdio mode
	var metricsServer *server.MetricsServer
	if opts.transport != transportStdio && opts.metrics.Enabled && provider.Enabled() && provider.PrometheusEnabled() {
		metricsServer, err = startMetricsServer(opts.metrics, provider, healthChecker)
		if err != nil {
			return err
		}
	}
	defer func() {
		// Shutdown metrics server first
		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("server context shutdown failed", logging.Err(err))
		}
	}()

	mcpSrv := newMCPServer()

	if opts.readOnly {
		logger.Info("starting server in read-only mode")
	}

	// Register all tools and resources
	if err := registerAllTools(mcpSrv, serverContext, opts.readOnly); err != nil {
		return err
	}

	// Start the appropriate server based on transport type
	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, healthChecker, provider.Metrics(), opts)
	}
}

const serverInstructions = `Tools for a ClickUp workspace.
Task arguments accept internal IDs (abc123 or #abc123), custom IDs such as GH-3761, and
ClickUp task URLs. Use find_list_by_name or list_lists to discover list IDs before
creating tasks. Read clickup://config/id-patterns for the custom ID prefixes in use.`

func newMCPServer() *mcpserver.MCPServer {
	return mcpserver.NewMCPServer(config.AppName, version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
		mcpserver.WithRecovery(),
		mcpserver.WithInstructions(serverInstructions),
	)
}

func startMetricsServer(cfg MetricsConfig, provider *instrumentation.Provider, health *server.HealthChecker) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Addr,
		Enabled:                 true,
		InstrumentationProvider: provider,
		HealthChecker:           health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// Wait for metrics server to be ready or fail
	select {
	case <-metricsReady:
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, ctx *server.ServerContext, readOnly bool) error {
	// Define all tool registrations
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Task",
			register: func() error {
				return task_tools.RegisterTaskTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Workspace",
			register: func() error {
				return workspace_tools.RegisterWorkspaceTools(mcpSrv, ctx)
			},
		},
		{
			name: "Doc",
			register: func() error {
				return doc_tools.RegisterDocTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Time",
			register: func() error {
				return time_tools.RegisterTimeTools(mcpSrv, ctx, readOnly)
			},
		},
		{
			name: "Analytics",
			register: func() error {
				return analytics_tools.RegisterAnalyticsTools(mcpSrv, ctx)
			},
		},
		{
			name: "Resources",
			register: func() error {
				return resources.RegisterResources(mcpSrv, ctx)
			},
		},
	}

	// Register all tools
	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s tools: %w", reg.name, err)
		}
	}

	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, health *server.HealthChecker, metrics *instrumentation.Metrics, opts serveOptions) error {
	httpServer := server.NewHTTPServer(mcpSrv, health, metrics)

	fmt.Printf("Starting clickup-mcp MCP server with %s transport on %s\n", opts.transport, opts.httpAddr)
	fmt.Printf("  HTTP endpoint: %s\n", server.MCPEndpointPath)
	fmt.Printf("  Health endpoints: /healthz, /readyz, /healthz/detailed\n")
	if opts.metrics.Enabled {
		fmt.Printf("  Metrics endpoint: %s/metrics\n", opts.metrics.Addr)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(opts.httpAddr); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		fmt.Println("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		fmt.Println("HTTP server stopped normally")
	}

	fmt.Println("HTTP server gracefully stopped")
	return nil
}
