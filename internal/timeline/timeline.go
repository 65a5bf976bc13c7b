// Package timeline reduces per-host task outcomes into one ordered result
// per task.
package timeline

import (
	"strings"

	"github.com/opsaudit/runreport/internal/trace"
)

// Status is the reconciled outcome of one task across all hosts.
type Status string

const (
	StatusOK          Status = "OK"
	StatusSkipped     Status = "SKIPPED"
	StatusFailed      Status = "FAILED"
	StatusUnreachable Status = "UNREACHABLE"
)

// TaskResult summarizes one task across every host that executed it. It is
// derived data: no single host owns it.
type TaskResult struct {
	Task    string `json:"task"`
	Status  Status `json:"status"`
	Changed string `json:"changed"`
}

// Extract walks the trace in play/task order and produces one TaskResult per
// task, excluding entries literally named "Gathering Facts" (name-only test,
// unlike the fallback fact search which also matches on action). Hosts are
// folded in sorted-identifier order; only the FAILED state is independent of
// that order.
func Extract(tr *trace.Trace) []TaskResult {
	results := []TaskResult{}
	if tr == nil {
		return results
	}
	for _, play := range tr.Plays {
		for i := range play.Tasks {
			task := &play.Tasks[i]
			if task.Task.Name == trace.GatherFactsName {
				continue
			}
			status := StatusSkipped
			changed := "No"
			for _, host := range task.SortedHosts() {
				outcome := task.Hosts[host]
				status = fold(status, classify(outcome))
				if outcome.Changed {
					changed = "Yes"
				}
			}
			results = append(results, TaskResult{
				Task:    CleanName(task.Task.Name),
				Status:  status,
				Changed: changed,
			})
		}
	}
	return results
}

// classify maps a single host outcome to a status. Flag precedence within
// one outcome: failed, unreachable, skipped, then OK.
func classify(o trace.Outcome) Status {
	switch {
	case o.Failed:
		return StatusFailed
	case o.Unreachable:
		return StatusUnreachable
	case o.Skipped:
		return StatusSkipped
	default:
		return StatusOK
	}
}

// fold applies one host's classification to the running task status.
// Precedence across hosts:
//
//	FAILED       sticky: never overwritten once seen
//	UNREACHABLE  replaced by whatever the next host reports
//	SKIPPED      replaced by whatever the next host reports
//	OK           replaced by whatever the next host reports
//
// Only FAILED survives later hosts. A later OK does overwrite an earlier
// UNREACHABLE; that asymmetry is part of the report contract. The start
// value SKIPPED doubles as the empty-hosts result.
func fold(state, next Status) Status {
	if state == StatusFailed {
		return StatusFailed
	}
	return next
}

// CleanName strips the role prefix from a task name: everything up to and
// including the first " : " separator.
func CleanName(name string) string {
	if _, after, found := strings.Cut(name, " : "); found {
		return after
	}
	return name
}
