package resolver

import (
	"errors"
	"fmt"

	"github.com/teemow/clickup-mcp/internal/clickup"
)

// ErrorKind classifies a failed resolution.
type ErrorKind string

const (
	// KindNotFound means no strategy produced a task.
	KindNotFound ErrorKind = "not_found"
	// KindUpstream means the reported failure was not an absence: auth, rate limiting,
	// timeouts, malformed payloads or transport errors.
	KindUpstream ErrorKind = "upstream"
	// KindAmbiguous means a search returned several tasks and none matched exactly.
	// Only reported by resolvers built WithStrictSearch.
	KindAmbiguous ErrorKind = "ambiguous"
)

// ResolutionError is the only error type Resolve returns.
type ResolutionError struct {
	Reference string
	Kind      ErrorKind
	// Strategy is the strategy whose failure is reported.
	Strategy Strategy
	// StatusCode is the HTTP status of Err. It is zero when Kind was overridden by an
	// empty search and no longer matches Err.
	StatusCode int
	// Attempts lists every strategy tried, in order.
	Attempts []Attempt
	Err      error
}

func (e *ResolutionError) Error() string {
	switch e.Kind {
	case KindAmbiguous:
		return fmt.Sprintf("task reference %q is ambiguous: %v", e.Reference, e.Err)
	case KindNotFound:
		if e.Err != nil {
			return fmt.Sprintf("task %q not found: %v", e.Reference, e.Err)
		}
		return fmt.Sprintf("task %q not found", e.Reference)
	default:
		return fmt.Sprintf("failed to resolve task %q: %v", e.Reference, e.Err)
	}
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a resolution that found nothing.
func IsNotFound(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Kind == KindNotFound
}

// IsAmbiguous reports whether err is an ambiguous search resolution.
func IsAmbiguous(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re) && re.Kind == KindAmbiguous
}

// classify maps a store error to a resolution kind.
func classify(err error) ErrorKind {
	if clickup.IsNotFound(err) {
		return KindNotFound
	}
	return KindUpstream
}
