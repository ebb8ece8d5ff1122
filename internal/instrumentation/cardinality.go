package instrumentation

import (
	"strconv"
	"strings"
)

// Helpers that keep metric label values bounded.

// ExtractUserDomain reduces an email to its domain, or "unknown".
//
//	ExtractUserDomain("jane@example.com")  // "example.com"
//	ExtractUserDomain("invalid")           // "unknown"
func ExtractUserDomain(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[1]
	}
	return "unknown"
}

// StatusClass collapses an HTTP status code to its class ("2xx", "4xx", ...).
// Zero means the request never produced a response and maps to "none".
func StatusClass(code int) string {
	if code <= 0 {
		return "none"
	}
	if code < 100 || code > 599 {
		return StatusUnknown
	}
	return strconv.Itoa(code/100) + "xx"
}

// Operation label values for ClickUp API metrics.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationSearch = "search"
	OperationMove   = "move"
)
