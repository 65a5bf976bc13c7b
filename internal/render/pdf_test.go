package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsaudit/runreport/internal/facts"
	"github.com/opsaudit/runreport/internal/report"
	"github.com/opsaudit/runreport/internal/timeline"
)

func sampleReport(taskCount int) *report.Report {
	results := make([]timeline.TaskResult, 0, taskCount)
	for i := 0; i < taskCount; i++ {
		results = append(results, timeline.TaskResult{
			Task:    fmt.Sprintf("Task number %d", i),
			Status:  timeline.StatusOK,
			Changed: "No",
		})
	}
	return report.Assemble(
		facts.SystemInfo{
			Hostname:     "web1",
			OS:           "Debian 12",
			Architecture: "x86_64",
			Kernel:       "6.1.0-18-amd64",
			CPU:          "Intel(R) Xeon(R) (4 vCPUs)",
			RAM:          "31.25 GB",
			Storage:      "/ (50.0 GB), /data (1.0 GB)",
			Network:      "eth0: 10.0.0.5 (aa:bb:cc:dd:ee:ff)\neth1: N/A (N/A)",
		},
		results,
		time.Date(2026, 8, 25, 10, 30, 0, 0, time.UTC),
	)
}

func TestTruncateName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"short name unchanged", "Install package", "Install package"},
		{"exactly 90 unchanged", strings.Repeat("a", 90), strings.Repeat("a", 90)},
		{"91 truncates to 87 plus ellipsis", strings.Repeat("a", 91), strings.Repeat("a", 87) + "..."},
		{"95 truncates to 87 plus ellipsis", strings.Repeat("a", 95), strings.Repeat("a", 87) + "..."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TruncateName(tc.in)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, len([]rune(got)), 90)
		})
	}
}

func TestTruncateName_MultibyteRunes(t *testing.T) {
	in := strings.Repeat("ü", 95)
	got := TruncateName(in)
	assert.Equal(t, strings.Repeat("ü", 87)+"...", got)
	assert.Len(t, []rune(got), 90)
}

func TestSystemInfoRows_CollapseRules(t *testing.T) {
	rows := systemInfoRows(facts.SystemInfo{
		Storage: "/ (50.0 GB)\n/data (1.0 GB)",
		Network: "eth0: 10.0.0.5 (aa:bb:cc:dd:ee:ff)\neth1: N/A (N/A)",
	})

	byLabel := map[string]string{}
	for _, row := range rows {
		byLabel[row.label] = row.value
	}

	// Every field except Network collapses line breaks to a single line.
	assert.Equal(t, "/ (50.0 GB), /data (1.0 GB)", byLabel["Storage"])
	assert.Contains(t, byLabel["Network"], "\n")
}

func TestSystemInfoRows_SchemaOrder(t *testing.T) {
	rows := systemInfoRows(facts.SystemInfo{})
	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.label)
	}
	assert.Equal(t, []string{"Hostname", "OS", "Architecture", "Kernel", "CPU", "RAM", "Storage", "Network"}, labels)
}

func TestWrite_ProducesPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New("").Write(sampleReport(5), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")), "output should start with a PDF signature")
}

func TestBuild_PaginatesLongTimelines(t *testing.T) {
	doc, err := New("").build(sampleReport(80))
	require.NoError(t, err)
	assert.Greater(t, doc.PageCount(), 1, "80 task rows must not fit a single page")

	doc, err = New("").build(sampleReport(3))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount())
}

func TestWriteFile(t *testing.T) {
	path := t.TempDir() + "/report.pdf"
	require.NoError(t, New("Hardening Report").WriteFile(sampleReport(10), path))
	assert.FileExists(t, path)
}

func TestDisplayTimestamp(t *testing.T) {
	assert.Equal(t, "2026-08-25 10:30:00", displayTimestamp("2026-08-25T10:30:00.123456"))
	// Unparseable timestamps render as-is rather than erroring.
	assert.Equal(t, "garbage", displayTimestamp("garbage"))
}
