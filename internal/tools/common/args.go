package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teemow/clickup-mcp/internal/tools/batch"
)

// StringArg returns the trimmed string argument key, or "" when it is missing or not a string.
func StringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RequiredString returns the string argument key or an "is required" error.
func RequiredString(args map[string]any, key string) (string, error) {
	v := StringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// OptionalString returns a pointer to the string argument key, or nil when it was not given.
// An explicit empty string is returned as a pointer to "".
func OptionalString(args map[string]any, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// BoolArg accepts a JSON boolean or "true"/"false".
func BoolArg(args map[string]any, key string, def bool) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

// HasArg reports whether key was passed at all.
func HasArg(args map[string]any, key string) bool {
	_, ok := args[key]
	return ok
}

// IntArg returns an integer argument. JSON numbers arrive as float64; numeric strings are
// accepted too.
func IntArg(args map[string]any, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}
	n, err := toInt64(raw)
	if err != nil {
		return 0, fmt.Errorf("%s %w", key, err)
	}
	return int(n), nil
}

// StringListArg returns a list argument given as an array, a JSON array string or a
// comma-separated string. A missing argument yields nil.
func StringListArg(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	if s, ok := raw.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return batch.ParseList(raw, key)
}

// Int64ListArg returns a list of user IDs. Elements may be numbers or numeric strings.
func Int64ListArg(args map[string]any, key string) ([]int64, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case float64, int, int64:
		items = []any{v}
	default:
		strs, err := StringListArg(args, key)
		if err != nil {
			return nil, err
		}
		for _, s := range strs {
			items = append(items, s)
		}
	}

	ids := make([]int64, 0, len(items))
	for i, item := range items {
		n, err := toInt64(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d] %w", key, i, err)
		}
		ids = append(ids, n)
	}
	return ids, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("must be a whole number, got %v", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("must be a number, got %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("must be a number, got %T", v)
	}
}
