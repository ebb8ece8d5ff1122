package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/clickup-mcp/internal/clickup"
)

var (
	jane = clickup.User{ID: 1, Username: "jane"}
	bob  = clickup.User{ID: 2, Username: "bob"}
)

func TestWorkload(t *testing.T) {
	hour := clickup.FlexInt(time.Hour / time.Millisecond)
	tasks := []clickup.Task{
		{ID: "1", Assignees: []clickup.User{jane}, Priority: clickup.PriorityHigh, TimeEstimate: 2 * hour},
		{ID: "2", Assignees: []clickup.User{jane, bob}, Priority: clickup.PriorityUrgent, TimeEstimate: hour / 2},
		{ID: "3", Assignees: []clickup.User{bob}},
		{ID: "4", Assignees: []clickup.User{jane}},
		{ID: "5"},
	}

	report := Workload(tasks)

	assert.Equal(t, 5, report.TotalTasks)
	assert.Equal(t, 1, report.Unassigned)
	require.Len(t, report.Members, 2)

	first := report.Members[0]
	assert.Equal(t, "jane", first.Username)
	assert.Equal(t, 3, first.TaskCount)
	assert.Equal(t, 2.5, first.EstimatedHours)
	assert.Equal(t, map[string]int{"urgent": 1, "high": 1, "normal": 0, "low": 0}, first.ByPriority)

	second := report.Members[1]
	assert.Equal(t, "bob", second.Username)
	assert.Equal(t, 2, second.TaskCount)
	assert.Equal(t, 0.5, second.EstimatedHours)
}

func TestWorkload_OrdersTiesByName(t *testing.T) {
	report := Workload([]clickup.Task{
		{ID: "1", Assignees: []clickup.User{jane}},
		{ID: "2", Assignees: []clickup.User{bob}},
	})
	require.Len(t, report.Members, 2)
	assert.Equal(t, "bob", report.Members[0].Username)
	assert.Equal(t, "jane", report.Members[1].Username)
}

func TestWorkload_Empty(t *testing.T) {
	report := Workload(nil)
	assert.Equal(t, 0, report.TotalTasks)
	assert.NotNil(t, report.Members)
}

func TestTaskAnalytics(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	at := func(daysAgo int, hours int) clickup.Timestamp {
		return clickup.Timestamp{Time: now.AddDate(0, 0, -daysAgo).Add(time.Duration(hours) * time.Hour)}
	}
	closed := clickup.TaskStatus{Status: "complete", Type: "closed"}
	open := clickup.TaskStatus{Status: "in progress", Type: "custom"}

	tasks := []clickup.Task{
		{ID: "1", DateCreated: at(5, 0), DateClosed: at(5, 10), Status: closed, Priority: clickup.PriorityHigh},
		{ID: "2", DateCreated: at(3, 0), DateDone: at(3, 20), Status: clickup.TaskStatus{Status: "done", Type: "done"}},
		{ID: "3", DateCreated: at(1, 0), Status: open, Priority: clickup.PriorityLow},
		{ID: "4", DateCreated: at(2, 0), Status: closed},
		{ID: "old", DateCreated: at(40, 0), Status: closed},
		{ID: "undated", Status: open},
	}

	report, err := TaskAnalytics(tasks, now, 10)
	require.NoError(t, err)

	assert.Equal(t, 10, report.PeriodDays)
	assert.Equal(t, now, report.End)
	assert.Equal(t, now.AddDate(0, 0, -10), report.Start)
	assert.Equal(t, Metrics{
		Created:            4,
		Completed:          3,
		CompletionRate:     75,
		AvgCompletionHours: 15,
		TasksPerDay:        0.4,
	}, report.Metrics)
	assert.Equal(t, map[string]int{"urgent": 0, "high": 1, "normal": 0, "low": 1}, report.ByPriority)
	assert.Equal(t, map[string]int{"complete": 2, "done": 1, "in progress": 1}, report.ByStatus)
}

func TestTaskAnalytics_Empty(t *testing.T) {
	report, err := TaskAnalytics(nil, time.Now(), 30)
	require.NoError(t, err)
	assert.Equal(t, Metrics{}, report.Metrics)
}

func TestTaskAnalytics_InvalidPeriod(t *testing.T) {
	_, err := TaskAnalytics(nil, time.Now(), 0)
	assert.EqualError(t, err, "period_days must be positive, got 0")
}
