package clickup

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TaskURLBase is the web address tasks are opened at.
const TaskURLBase = "https://app.clickup.com/t/"

// TaskURL returns the web URL of a task.
func TaskURL(taskID string) string {
	return TaskURLBase + taskID
}

// FormatDuration renders milliseconds as "2h 5m" or "45m". Zero and negative values
// render as "0m".
func FormatDuration(ms int64) string {
	if ms <= 0 {
		return "0m"
	}
	d := time.Duration(ms) * time.Millisecond
	hours := int64(d / time.Hour)
	minutes := int64((d % time.Hour) / time.Minute)
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

var durationPattern = regexp.MustCompile(`^(?:(\d+)h)?(?:(\d+)m)?$`)

// ParseDuration converts "1h 30m", "90m", "2h" or a bare number of minutes into
// milliseconds. Only hours and minutes are accepted.
func ParseDuration(s string) (int64, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if normalized == "" {
		return 0, fmt.Errorf("invalid duration format: %q", s)
	}

	if minutes, err := strconv.ParseInt(normalized, 10, 64); err == nil {
		if minutes < 0 {
			return 0, fmt.Errorf("duration must not be negative: %q", s)
		}
		return minutes * int64(time.Minute/time.Millisecond), nil
	}

	m := durationPattern.FindStringSubmatch(normalized)
	if m == nil {
		return 0, fmt.Errorf("invalid duration format: %q (use hours and minutes, e.g. 1h 30m)", s)
	}
	hours, _ := strconv.ParseInt("0"+m[1], 10, 64)
	minutes, _ := strconv.ParseInt("0"+m[2], 10, 64)
	return (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute).Milliseconds(), nil
}

// ParseDate converts an RFC3339 timestamp or a YYYY-MM-DD date (midnight UTC) into epoch
// milliseconds.
func ParseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", s)
}
