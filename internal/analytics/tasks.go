package analytics

import (
	"fmt"
	"time"

	"github.com/teemow/clickup-mcp/internal/clickup"
)

// Metrics are the throughput figures for a period.
type Metrics struct {
	Created            int     `json:"total_tasks_created"`
	Completed          int     `json:"completed_tasks"`
	CompletionRate     float64 `json:"completion_rate"`
	AvgCompletionHours float64 `json:"avg_completion_hours"`
	TasksPerDay        float64 `json:"tasks_per_day"`
}

// Report summarizes the tasks created in a period.
type Report struct {
	PeriodDays int            `json:"period_days"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	Metrics    Metrics        `json:"metrics"`
	ByPriority map[string]int `json:"by_priority"`
	ByStatus   map[string]int `json:"by_status"`
}

// TaskAnalytics reports on the tasks created in the periodDays days before now. Tasks
// created outside the period are ignored. Completion rate is a percentage; completion
// time is measured from creation to close for tasks that have both timestamps.
func TaskAnalytics(tasks []clickup.Task, now time.Time, periodDays int) (Report, error) {
	if periodDays <= 0 {
		return Report{}, fmt.Errorf("period_days must be positive, got %d", periodDays)
	}

	start := now.AddDate(0, 0, -periodDays)
	report := Report{
		PeriodDays: periodDays,
		Start:      start.UTC(),
		End:        now.UTC(),
		ByPriority: emptyPriorities(),
		ByStatus:   make(map[string]int),
	}

	var totalHours float64
	var timed int
	for _, task := range tasks {
		created := task.DateCreated.Time
		if created.IsZero() || created.Before(start) || created.After(now) {
			continue
		}

		report.Metrics.Created++
		report.ByStatus[task.Status.Status]++
		if task.Priority != clickup.PriorityNone {
			report.ByPriority[task.Priority.String()]++
		}

		if !task.Status.Closed() {
			continue
		}
		report.Metrics.Completed++

		closed := task.DateClosed.Time
		if closed.IsZero() {
			closed = task.DateDone.Time
		}
		if !closed.IsZero() && closed.After(created) {
			totalHours += closed.Sub(created).Hours()
			timed++
		}
	}

	if report.Metrics.Created > 0 {
		report.Metrics.CompletionRate = round2(float64(report.Metrics.Completed) / float64(report.Metrics.Created) * 100)
	}
	if timed > 0 {
		report.Metrics.AvgCompletionHours = round2(totalHours / float64(timed))
	}
	report.Metrics.TasksPerDay = round2(float64(report.Metrics.Created) / float64(periodDays))

	return report, nil
}
