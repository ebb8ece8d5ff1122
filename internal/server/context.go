package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teemow/clickup-mcp/internal/clickup"
	"github.com/teemow/clickup-mcp/internal/config"
	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/logging"
	"github.com/teemow/clickup-mcp/internal/resolver"
)

// ServerContext holds the dependencies shared by every tool handler.
type ServerContext struct {
	ctx      context.Context
	cancel   context.CancelFunc
	config   *config.Config
	client   *clickup.Client
	resolver *resolver.Resolver
	readOnly bool

	mu          sync.RWMutex
	currentUser *clickup.User
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	logger      *slog.Logger
	shutdown    bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

// WithReadOnly marks the server as read-only; write tools are not registered.
func WithReadOnly(readOnly bool) Option {
	return func(sc *ServerContext) { sc.readOnly = readOnly }
}

// WithResolver replaces the resolver built from the client and config.
func WithResolver(r *resolver.Resolver) Option {
	return func(sc *ServerContext) { sc.resolver = r }
}

// WithMetrics sets the metrics shared by tool instrumentation and the resolver.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) { sc.logger = logger }
}

// NewServerContext creates a server context for client configured by cfg.
func NewServerContext(ctx context.Context, cfg *config.Config, client *clickup.Client, opts ...Option) (*ServerContext, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if client == nil {
		return nil, errors.New("ClickUp client is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		config: cfg,
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	if sc.resolver == nil {
		sc.resolver = resolver.New(
			resolver.NewClientStore(client),
			resolver.NewPatternTable(cfg.IDPatterns),
			cfg.ScopeID(),
			resolver.WithStrictSearch(cfg.StrictSearchMatch),
			resolver.WithMetrics(sc.metrics),
			resolver.WithLogger(logging.NewSlogAdapter(sc.logger)),
		)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Config() *config.Config {
	return sc.config
}

func (sc *ServerContext) Client() *clickup.Client {
	return sc.client
}

func (sc *ServerContext) Resolver() *resolver.Resolver {
	return sc.resolver
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// ResolveTask resolves a task reference with the shared resolver.
func (sc *ServerContext) ResolveTask(ctx context.Context, ref string, includeSubtasks bool) (*clickup.Task, error) {
	return sc.resolver.Resolve(ctx, ref, resolver.ResolveOptions{IncludeSubtasks: includeSubtasks})
}

// SetCurrentUser records the user owning the API key, as verified at startup.
func (sc *ServerContext) SetCurrentUser(user *clickup.User) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.currentUser = user
}

// CurrentUser returns the verified user, or nil before verification.
func (sc *ServerContext) CurrentUser() *clickup.User {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.currentUser
}

// UserEmail returns the verified user's email, or "" when unknown.
func (sc *ServerContext) UserEmail() string {
	if u := sc.CurrentUser(); u != nil {
		return u.Email
	}
	return ""
}

// SetMetrics sets the metrics used by tool instrumentation.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics, or nil when instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by tool instrumentation.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
