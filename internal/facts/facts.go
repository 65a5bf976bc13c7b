// Package facts resolves host inventory facts into a fixed-schema SystemInfo.
//
// Facts come from the dedicated snapshot file when one is usable, otherwise
// from facts embedded in the execution trace's fact-gathering task. The
// resolver never fails: every problem becomes a default value or the error
// marker surfaced in the Hostname field.
package facts

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/opsaudit/runreport/internal/trace"
)

// AbsentSentinel marks an explicitly absent facts snapshot on the command
// line.
const AbsentSentinel = "none"

// 1 GiB, the storage reporting threshold. 2^30 exactly, not 10^9.
const gib = 1073741824

// Snapshot is the raw facts file: either a facts mapping under ansible_facts
// or an error envelope from a failed collection.
type Snapshot struct {
	AnsibleFacts map[string]any `json:"ansible_facts"`
	Unreachable  bool           `json:"unreachable"`
	Failed       bool           `json:"failed"`
	Msg          string         `json:"msg"`
}

// SystemInfo is the normalized host description embedded in the report.
// Field order and JSON keys are part of the artifact schema; every field is
// always populated, with "N/A"/"Unknown" sentinels when facts are missing.
type SystemInfo struct {
	Hostname     string `json:"Hostname"`
	OS           string `json:"OS"`
	Architecture string `json:"Architecture"`
	Kernel       string `json:"Kernel"`
	CPU          string `json:"CPU"`
	RAM          string `json:"RAM"`
	Storage      string `json:"Storage"`
	Network      string `json:"Network"`
}

// Resolution is the resolver output: a fully populated SystemInfo, the error
// marker (empty when facts were found), and whether the trace fallback was
// attempted.
type Resolution struct {
	Info         SystemInfo
	FactError    string
	UsedFallback bool
}

// Resolve loads the facts snapshot (path may be empty or the "none"
// sentinel) and falls back to facts embedded in the execution trace when the
// snapshot yields nothing. A snapshot that cannot be read or parsed is
// logged and treated as absent. The fallback notice goes to out, ahead of
// any artifact announcements.
func Resolve(snapshotPath string, tr *trace.Trace, out io.Writer) Resolution {
	var factSet map[string]any
	var factError string

	if snapshotPath != "" && snapshotPath != AbsentSentinel {
		snap, err := loadSnapshot(snapshotPath)
		switch {
		case err != nil:
			log.Printf("Error loading facts file: %v", err)
		case len(snap.AnsibleFacts) > 0:
			factSet = snap.AnsibleFacts
		case snap.Unreachable:
			factError = "UNREACHABLE: " + messageOf(snap)
		case snap.Failed:
			factError = "FAILED: " + messageOf(snap)
		}
	}

	res := Resolution{FactError: factError}
	if len(factSet) == 0 && tr != nil && len(tr.Plays) > 0 {
		res.UsedFallback = true
		fmt.Fprintln(out, "Using fallback facts from playbook output...")
		if found, ok := trace.FindGatheredFacts(tr); ok {
			factSet = found
			res.FactError = ""
		}
	}

	res.Info = buildSystemInfo(factSet, res.FactError)
	return res
}

func loadSnapshot(path string) (*Snapshot, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func messageOf(snap *Snapshot) string {
	if snap.Msg != "" {
		return snap.Msg
	}
	return "Unknown Error"
}

// buildSystemInfo extracts every report field from the fact set, tolerating
// absence of any individual fact. When the fact set is empty and collection
// recorded an error, the Hostname field carries the marker inline; no other
// field embeds the error condition.
func buildSystemInfo(facts map[string]any, factError string) SystemInfo {
	info := SystemInfo{
		Hostname:     stringFact(facts, "ansible_hostname", "N/A"),
		OS:           osString(facts),
		Architecture: stringFact(facts, "ansible_architecture", "N/A"),
		Kernel:       stringFact(facts, "ansible_kernel", "N/A"),
		CPU:          cpuString(facts),
		RAM:          formatGB(numberFact(facts, "ansible_memtotal_mb", 0)/1024) + " GB",
		Storage:      storageString(facts),
		Network:      networkString(facts),
	}
	if factError != "" && len(facts) == 0 {
		info.Hostname = "ERROR: " + factError
	}
	return info
}

func osString(facts map[string]any) string {
	dist := stringFact(facts, "ansible_distribution", "")
	if dist == "" {
		return "Unknown"
	}
	if ver := stringFact(facts, "ansible_distribution_version", ""); ver != "" {
		return dist + " " + ver
	}
	return dist
}

// cpuString picks the processor model from the ansible_processor list. Known
// fact formats interleave index/vendor/model triples, so the third entry is
// the model name when the list is long enough.
func cpuString(facts map[string]any) string {
	processors := listFact(facts, "ansible_processor")
	model := "Unknown"
	if len(processors) > 2 {
		model = asString(processors[2], model)
	} else if len(processors) > 0 {
		model = asString(processors[0], model)
	}
	vcpus := numberFact(facts, "ansible_processor_vcpus", 1)
	return fmt.Sprintf("%s (%d vCPUs)", model, int(vcpus))
}

// storageString lists mounts strictly larger than 1 GiB, comma-joined.
func storageString(facts map[string]any) string {
	var parts []string
	for _, entry := range listFact(facts, "ansible_mounts") {
		mount, _ := entry.(map[string]any)
		if mount == nil {
			continue
		}
		size := numberFact(mount, "size_total", 0)
		if size <= gib {
			continue
		}
		name := stringFact(mount, "mount", "N/A")
		parts = append(parts, fmt.Sprintf("%s (%s GB)", name, formatGB(size/gib)))
	}
	return strings.Join(parts, ", ")
}

// networkString lists every non-loopback interface with an entry in the fact
// set, one per line. Per-interface details live under the "ansible_<ifname>"
// key; that key convention is fixed by the fact producer and must be matched
// byte for byte.
func networkString(facts map[string]any) string {
	var lines []string
	for _, entry := range listFact(facts, "ansible_interfaces") {
		iface := asString(entry, "")
		if iface == "" || iface == "lo" {
			continue
		}
		details := mapFact(facts, "ansible_"+iface)
		if details == nil {
			continue
		}
		addr := stringFact(mapFact(details, "ipv4"), "address", "N/A")
		mac := stringFact(details, "macaddress", "N/A")
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", iface, addr, mac))
	}
	return strings.Join(lines, "\n")
}

// formatGB renders a size rounded to two decimals the way the report schema
// expects: trailing zeros trimmed but at least one fractional digit kept
// (1.0, 0.0, 31.25).
func formatGB(v float64) string {
	s := strconv.FormatFloat(math.Round(v*100)/100, 'f', 2, 64)
	for strings.HasSuffix(s, "0") && !strings.HasSuffix(s, ".0") {
		s = s[:len(s)-1]
	}
	return s
}

func stringFact(facts map[string]any, key, def string) string {
	if s, ok := facts[key].(string); ok && s != "" {
		return s
	}
	return def
}

func numberFact(facts map[string]any, key string, def float64) float64 {
	if n, ok := facts[key].(float64); ok {
		return n
	}
	return def
}

func listFact(facts map[string]any, key string) []any {
	l, _ := facts[key].([]any)
	return l
}

func mapFact(facts map[string]any, key string) map[string]any {
	m, _ := facts[key].(map[string]any)
	return m
}

func asString(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}
