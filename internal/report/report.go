// Package report assembles and persists the canonical run report.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/opsaudit/runreport/internal/facts"
	"github.com/opsaudit/runreport/internal/timeline"
)

// TimestampLayout is the ISO-8601 layout of the report timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Report is the canonical structured artifact. Field names and order are the
// artifact schema and must not change.
type Report struct {
	Timestamp         string                `json:"timestamp"`
	SystemInfo        facts.SystemInfo      `json:"system_info"`
	PlaybookExecution []timeline.TaskResult `json:"playbook_execution"`
}

// Assemble merges the resolved system info and the task timeline under the
// given generation timestamp. It derives nothing else: identical inputs and
// timestamp produce an identical report.
func Assemble(info facts.SystemInfo, results []timeline.TaskResult, ts time.Time) *Report {
	if results == nil {
		results = []timeline.TaskResult{}
	}
	return &Report{
		Timestamp:         ts.Format(TimestampLayout),
		SystemInfo:        info,
		PlaybookExecution: results,
	}
}

// WriteJSON writes the report to path atomically, with 4-space indentation.
func (r *Report) WriteJSON(path string) error {
	content, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return atomicWriteJSON(path, content)
}
