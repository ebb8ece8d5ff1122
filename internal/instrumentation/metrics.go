package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod      = "method"
	attrPath        = "path"
	attrStatus      = "status"
	attrStatusClass = "status_class"
	attrOperation   = "operation"
	attrResource    = "resource"
	attrResult      = "result"
	attrStrategy    = "strategy"
	attrTool        = "tool"
	attrWorkspace   = "workspace"
)

// Metrics records server, tool, ClickUp API and task resolution metrics.
// A zero Metrics is a valid no-op recorder.
type Metrics struct {
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	apiRequestsTotal   metric.Int64Counter
	apiRequestDuration metric.Float64Histogram
	rateLimitWait      metric.Float64Histogram

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	resolverAttemptsTotal metric.Int64Counter
	resolutionsTotal      metric.Int64Counter

	detailedLabels bool
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error

	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.apiRequestsTotal, err = meter.Int64Counter(
		"clickup_api_requests_total",
		metric.WithDescription("Total number of ClickUp API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create clickup_api_requests_total counter: %w", err)
	}

	m.apiRequestDuration, err = meter.Float64Histogram(
		"clickup_api_request_duration_seconds",
		metric.WithDescription("ClickUp API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create clickup_api_request_duration_seconds histogram: %w", err)
	}

	m.rateLimitWait, err = meter.Float64Histogram(
		"clickup_rate_limit_wait_seconds",
		metric.WithDescription("Time spent waiting on the client-side ClickUp rate limiter"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create clickup_rate_limit_wait_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	m.resolverAttemptsTotal, err = meter.Int64Counter(
		"clickup_resolver_attempts_total",
		metric.WithDescription("Task lookup attempts by strategy and outcome"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create clickup_resolver_attempts_total counter: %w", err)
	}

	m.resolutionsTotal, err = meter.Int64Counter(
		"clickup_resolutions_total",
		metric.WithDescription("Task reference resolutions by final outcome"),
		metric.WithUnit("{resolution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create clickup_resolutions_total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records a request served by the streamable-http transport.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)

	m.httpRequestsTotal.Add(ctx, 1, attrs)
	m.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAPIRequest records one ClickUp API round trip.
//
// resource is one of the Resource* constants, operation one of the Operation* constants.
// statusCode is 0 when no response was received.
func (m *Metrics) RecordAPIRequest(ctx context.Context, resource, operation string, statusCode int, duration time.Duration) {
	if m == nil || m.apiRequestsTotal == nil || m.apiRequestDuration == nil {
		return
	}

	status := StatusSuccess
	if statusCode == 0 || statusCode >= 400 {
		status = StatusError
	}

	attrs := metric.WithAttributes(
		attribute.String(attrResource, resource),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
		attribute.String(attrStatusClass, StatusClass(statusCode)),
	)

	m.apiRequestsTotal.Add(ctx, 1, attrs)
	m.apiRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRateLimitWait records how long a request was held back by the client-side limiter.
func (m *Metrics) RecordRateLimitWait(ctx context.Context, wait time.Duration) {
	if m == nil || m.rateLimitWait == nil {
		return
	}
	m.rateLimitWait.Record(ctx, wait.Seconds())
}

// RecordToolInvocation records an MCP tool invocation.
// workspace is only attached when detailed labels are enabled.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status, workspace string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}
	if m.detailedLabels && workspace != "" {
		attrs = append(attrs, attribute.String(attrWorkspace, workspace))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordResolverAttempt records the outcome of a single lookup strategy.
// result is "hit", "miss" or "error".
func (m *Metrics) RecordResolverAttempt(ctx context.Context, strategy, result string) {
	if m == nil || m.resolverAttemptsTotal == nil {
		return
	}
	m.resolverAttemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStrategy, strategy),
		attribute.String(attrResult, result),
	))
}

// RecordResolution records the final outcome of a task reference resolution.
// strategy is the winning strategy, or empty on failure; result is "resolved" or an error kind.
func (m *Metrics) RecordResolution(ctx context.Context, strategy, result string) {
	if m == nil || m.resolutionsTotal == nil {
		return
	}
	if strategy == "" {
		strategy = "none"
	}
	m.resolutionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStrategy, strategy),
		attribute.String(attrResult, result),
	))
}
