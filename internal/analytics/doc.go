// Package analytics computes workload and throughput figures from ClickUp tasks.
//
// The functions are pure: callers fetch the tasks (usually every task of a space) and
// pass them in together with the reference time.
package analytics
