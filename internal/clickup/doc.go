// Package clickup is a client for the ClickUp REST API (v2, plus v3 for docs).
//
// The client authenticates with a personal API token, throttles itself with a token
// bucket (ClickUp allows 100 requests per minute per token on most plans), and reports
// every call as an OpenTelemetry span and metric.
//
// Every failure is an *APIError carrying the HTTP status and a coarse ErrorKind, so callers
// can tell a missing task from an expired token or a timeout:
//
//	task, err := client.GetTask(ctx, "86abc123", clickup.GetTaskOptions{})
//	if clickup.IsNotFound(err) {
//		// try something else
//	}
//
// ClickUp's JSON is loose about types (timestamps as strings, priorities as objects or
// numbers, tags as objects or strings); the types in this package normalize that on decode.
package clickup
