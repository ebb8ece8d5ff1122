// Package server holds the runtime pieces around the MCP server: the ServerContext
// shared by tool handlers, the streamable-http transport, health checks and the
// Prometheus metrics server.
//
// # Key Components
//
// ServerContext carries the configuration, the ClickUp client, the task reference
// resolver and the optional instrumentation (metrics, audit log). It is created once
// per process and handed to every tool registration function.
//
// HTTPServer mounts the MCP streamable-http handler at /mcp and the health endpoints
// next to it. Requests are traced with otelhttp and counted per route.
//
// HealthChecker serves /healthz (liveness), /readyz (readiness: not shutting down and
// API key verified) and /healthz/detailed, which also probes ClickUp.
//
// MetricsServer exposes /metrics on a dedicated port.
package server
