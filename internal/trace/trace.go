// Package trace models the JSON execution trace emitted by an automation run:
// an ordered list of plays, each with its ordered tasks and per-host outcomes.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// The bootstrap fact-gathering task is identified by its display name or its
// action identifier.
const (
	GatherFactsName   = "Gathering Facts"
	GatherFactsAction = "gather_facts"
)

// Trace is the parsed execution trace. It is never mutated after Load.
type Trace struct {
	Plays []Play `json:"plays"`
}

type Play struct {
	Play  PlayMeta    `json:"play"`
	Tasks []TaskEntry `json:"tasks"`
}

type PlayMeta struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TaskEntry struct {
	Task  TaskMeta           `json:"task"`
	Hosts map[string]Outcome `json:"hosts"`
}

type TaskMeta struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Action string `json:"action"`
}

// Outcome is one host's result for one task. Fact-gathering outcomes embed
// the collected facts under ansible_facts.
type Outcome struct {
	Failed       bool           `json:"failed"`
	Unreachable  bool           `json:"unreachable"`
	Skipped      bool           `json:"skipped"`
	Changed      bool           `json:"changed"`
	AnsibleFacts map[string]any `json:"ansible_facts"`
}

// Load reads and parses the execution trace. Any failure here is fatal for
// the whole run: the caller must not proceed without a trace.
func Load(path string) (*Trace, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read execution trace: %w", err)
	}
	var tr Trace
	if err := json.Unmarshal(content, &tr); err != nil {
		return nil, fmt.Errorf("parse execution trace: %w", err)
	}
	return &tr, nil
}

// SortedHosts returns the task's host identifiers in sorted order. The host
// map carries no order in JSON, so every traversal goes through this to stay
// deterministic for a given input.
func (t *TaskEntry) SortedHosts() []string {
	hosts := make([]string, 0, len(t.Hosts))
	for h := range t.Hosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// IsGatherFacts reports whether the task is the bootstrap fact-gathering
// task, by name or by action.
func (t *TaskEntry) IsGatherFacts() bool {
	return t.Task.Name == GatherFactsName || t.Task.Action == GatherFactsAction
}

// FindGatheredFacts scans plays and tasks in execution order for
// fact-gathering tasks and returns the first embedded fact set found among
// their host outcomes. The search stops at the first hit; a gathering task
// with no embedded facts does not end it.
func FindGatheredFacts(tr *Trace) (map[string]any, bool) {
	if tr == nil {
		return nil, false
	}
	for _, play := range tr.Plays {
		for i := range play.Tasks {
			task := &play.Tasks[i]
			if !task.IsGatherFacts() {
				continue
			}
			for _, host := range task.SortedHosts() {
				if facts := task.Hosts[host].AnsibleFacts; len(facts) > 0 {
					return facts, true
				}
			}
		}
	}
	return nil, false
}
