package analytics

import (
	"math"
	"sort"

	"github.com/teemow/clickup-mcp/internal/clickup"
)

// MemberWorkload is the open work assigned to one user.
type MemberWorkload struct {
	UserID         int64          `json:"user_id"`
	Username       string         `json:"username"`
	TaskCount      int            `json:"task_count"`
	EstimateMillis int64          `json:"total_time_estimate"`
	EstimatedHours float64        `json:"total_hours_estimate"`
	ByPriority     map[string]int `json:"by_priority"`
}

// WorkloadReport is the distribution of tasks over assignees.
type WorkloadReport struct {
	TotalTasks int              `json:"total_tasks"`
	Unassigned int              `json:"unassigned_tasks"`
	Members    []MemberWorkload `json:"team_workload"`
}

// Workload groups tasks by assignee. A task with several assignees counts once for each of
// them. Members are ordered by task count, then username.
func Workload(tasks []clickup.Task) WorkloadReport {
	report := WorkloadReport{TotalTasks: len(tasks), Members: []MemberWorkload{}}
	byUser := make(map[int64]*MemberWorkload)

	for _, task := range tasks {
		if len(task.Assignees) == 0 {
			report.Unassigned++
			continue
		}
		for _, a := range task.Assignees {
			w, ok := byUser[a.ID]
			if !ok {
				w = &MemberWorkload{
					UserID:     a.ID,
					Username:   a.DisplayName(),
					ByPriority: emptyPriorities(),
				}
				byUser[a.ID] = w
			}
			w.TaskCount++
			w.EstimateMillis += int64(task.TimeEstimate)
			if task.Priority != clickup.PriorityNone {
				w.ByPriority[task.Priority.String()]++
			}
		}
	}

	for _, w := range byUser {
		w.EstimatedHours = round2(float64(w.EstimateMillis) / float64(millisPerHour))
		report.Members = append(report.Members, *w)
	}
	sort.Slice(report.Members, func(i, j int) bool {
		a, b := report.Members[i], report.Members[j]
		if a.TaskCount != b.TaskCount {
			return a.TaskCount > b.TaskCount
		}
		return a.Username < b.Username
	})
	return report
}

const millisPerHour = 60 * 60 * 1000

func emptyPriorities() map[string]int {
	return map[string]int{
		clickup.PriorityUrgent.String(): 0,
		clickup.PriorityHigh.String():   0,
		clickup.PriorityNormal.String(): 0,
		clickup.PriorityLow.String():    0,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
