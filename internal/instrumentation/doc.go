// Package instrumentation provides OpenTelemetry metrics, tracing and audit logging for
// the clickup-mcp server.
//
// # Metrics
//
//   - http_requests_total, http_request_duration_seconds: streamable-http transport
//   - clickup_api_requests_total, clickup_api_request_duration_seconds: ClickUp REST calls
//     by resource, operation and status class
//   - clickup_rate_limit_wait_seconds: time held back by the client-side limiter
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds: tool calls by tool and status
//   - clickup_resolver_attempts_total: task lookup attempts by strategy and result
//   - clickup_resolutions_total: task reference resolutions by winning strategy and result
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>), ClickUp API calls
// (clickup.<resource>.<operation>) and task reference resolution (resolver.resolve).
//
// # Configuration
//
// Read from the environment by DefaultConfig:
//   - INSTRUMENTATION_ENABLED (default true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_INSECURE
//   - OTEL_TRACES_SAMPLER_ARG (default 0.1)
//   - OTEL_SERVICE_NAME (default clickup-mcp)
//   - AUDIT_LOGGING_ENABLED, AUDIT_LOGGING_INCLUDE_PII
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "get_task", "success", "", time.Since(start))
package instrumentation
