package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/teemow/clickup-mcp/internal/instrumentation"
	"github.com/teemow/clickup-mcp/internal/logging"
)

const (
	DefaultBaseURL           = "https://api.clickup.com/api"
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerMinute = 100
	DefaultWorkspaceCacheTTL = 5 * time.Minute

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 16 << 20
)

const (
	apiV2 = "v2"
	apiV3 = "v3"
)

// Client is a ClickUp REST API client authenticated with a personal API token.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
	metrics    *instrumentation.Metrics

	defaultWorkspace string
	workspaceTTL     time.Duration

	mu              sync.Mutex
	cachedWorkspace string
	cachedAt        time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. an httptest server.
// The root must not include the version segment.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient replaces the HTTP client. Its Timeout is left as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit limits outgoing requests per minute. Zero or less disables limiting.
func WithRateLimit(requestsPerMinute int) Option {
	return func(c *Client) { c.limiter = newLimiter(requestsPerMinute) }
}

// WithDefaultWorkspace sets the workspace used when a call does not name one.
func WithDefaultWorkspace(id string) Option {
	return func(c *Client) { c.defaultWorkspace = id }
}

// WithWorkspaceCacheTTL sets how long an auto-detected workspace ID is reused.
func WithWorkspaceCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.workspaceTTL = ttl }
}

func WithLogger(logger logging.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a client for apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	c := &Client{
		baseURL:      DefaultBaseURL,
		apiKey:       apiKey,
		timeout:      DefaultTimeout,
		limiter:      newLimiter(DefaultRequestsPerMinute),
		logger:       logging.DefaultLogger(),
		workspaceTTL: DefaultWorkspaceCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   c.timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return c, nil
}

func newLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst)
}

// request describes one API call.
type request struct {
	method    string
	version   string
	path      string
	query     url.Values
	body      any
	resource  string
	operation string
}

type errorBody struct {
	Err   string `json:"err"`
	ECode string `json:"ECODE"`
}

// notFoundCodes are ClickUp error codes meaning the item does not exist, whatever the status.
var notFoundCodes = map[string]bool{
	"ITEM_013": true,
	"ITEM_015": true,
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if req.version == "" {
		req.version = apiV2
	}

	ctx, span := instrumentation.StartAPISpan(ctx, req.resource, req.operation)
	defer span.End()

	if err := c.wait(ctx); err != nil {
		apiErr := transportError(req.method, req.path, err)
		instrumentation.SetSpanError(span, apiErr)
		return apiErr
	}

	start := time.Now()
	status, err := c.roundTrip(ctx, req, out)
	c.metrics.RecordAPIRequest(ctx, req.resource, req.operation, status, time.Since(start))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.logger.Debug("clickup request failed",
			"method", req.method, "path", req.path, logging.Err(err))
		return err
	}

	instrumentation.SetSpanSuccess(span)
	return nil
}

func (c *Client) wait(ctx context.Context) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if waited := time.Since(start); waited > time.Millisecond {
		c.metrics.RecordRateLimitWait(ctx, waited)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) (int, error) {
	u := c.baseURL + "/" + req.version + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, transportError(req.method, req.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, transportError(req.method, req.path, err)
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, newStatusError(req, resp, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, &APIError{
			Method:     req.method,
			Path:       req.path,
			StatusCode: resp.StatusCode,
			Kind:       KindMalformed,
			Message:    "malformed response",
			Err:        err,
		}
	}
	return resp.StatusCode, nil
}

func newStatusError(req request, resp *http.Response, data []byte) *APIError {
	apiErr := &APIError{
		Method:     req.method,
		Path:       req.path,
		StatusCode: resp.StatusCode,
		Kind:       kindForStatus(resp.StatusCode),
	}

	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil && eb.Err != "" {
		apiErr.Message = eb.Err
		apiErr.Code = eb.ECode
	} else {
		apiErr.Message = strings.TrimSpace(string(data))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}

	if notFoundCodes[apiErr.Code] {
		apiErr.Kind = KindNotFound
	}
	return apiErr
}

// WorkspaceID returns explicit when set, else the configured default, else the first
// workspace the token can see. The detected ID is cached for the workspace TTL.
func (c *Client) WorkspaceID(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if c.defaultWorkspace != "" {
		return c.defaultWorkspace, nil
	}

	c.mu.Lock()
	if c.cachedWorkspace != "" && time.Since(c.cachedAt) < c.workspaceTTL {
		id := c.cachedWorkspace
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	workspaces, err := c.GetWorkspaces(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to detect workspace: %w", err)
	}
	if len(workspaces) == 0 {
		return "", fmt.Errorf("no workspaces available for this API key")
	}

	c.mu.Lock()
	c.cachedWorkspace = workspaces[0].ID
	c.cachedAt = time.Now()
	c.mu.Unlock()

	return workspaces[0].ID, nil
}
