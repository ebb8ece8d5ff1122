// Package common provides the pieces every ClickUp tool package shares: the instrumented
// handler wrapper, typed access to tool arguments, task reference resolution and result
// formatting.
package common
