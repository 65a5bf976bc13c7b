// Package render lays the canonical report out as a paginated A4 PDF.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/opsaudit/runreport/internal/facts"
	"github.com/opsaudit/runreport/internal/report"
)

// All dimensions in millimetres on an A4 portrait page.
const (
	pageWidth     = 210.0
	marginLeft    = 10.0
	marginRight   = 10.0
	writableWidth = pageWidth - marginLeft - marginRight

	colWidthStatus  = 30.0
	colWidthChanged = 20.0
	colWidthTask    = writableWidth - colWidthStatus - colWidthChanged

	labelWidth = 40.0
)

// Task names render at most 90 characters; longer ones keep 87 plus "...".
const (
	maxTaskNameLen = 90
	truncatedLen   = 87
)

// DefaultTitle is the running page title when no config overrides it.
const DefaultTitle = "Hardening Report"

// Renderer builds the paginated document for a report.
type Renderer struct {
	Title string
}

func New(title string) *Renderer {
	if title == "" {
		title = DefaultTitle
	}
	return &Renderer{Title: title}
}

// WriteFile renders the report and writes the PDF to path. There is no
// recoverable-error path: the first layout error is fatal for the document.
func (r *Renderer) WriteFile(rep *report.Report, path string) error {
	doc, err := r.build(rep)
	if err != nil {
		return err
	}
	if err := doc.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// Write renders the report to w.
func (r *Renderer) Write(rep *report.Report, w io.Writer) error {
	doc, err := r.build(rep)
	if err != nil {
		return err
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func (r *Renderer) build(rep *report.Report) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginLeft, 10, marginRight)
	pdf.SetAutoPageBreak(true, 15)
	// Total page count is only known after the whole document is laid out;
	// the {nb} alias is patched into every footer when the document closes.
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, r.Title, "", 1, "C", false, 0, "")
		pdf.Line(marginLeft, 20, pageWidth-marginRight, 20)
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	r.metadata(pdf, rep)
	r.systemInfo(pdf, rep)
	r.taskTable(pdf, rep)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout document: %w", err)
	}
	return pdf, nil
}

func (r *Renderer) metadata(pdf *fpdf.Fpdf, rep *report.Report) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Date: "+displayTimestamp(rep.Timestamp), "", 1, "R", false, 0, "")
	pdf.Ln(5)
}

func displayTimestamp(ts string) string {
	t, err := time.Parse(report.TimestampLayout, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func chapterTitle(pdf *fpdf.Fpdf, label string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 8, "  "+label, "", 1, "L", true, 0, "")
	pdf.Ln(2)
}

func (r *Renderer) systemInfo(pdf *fpdf.Fpdf, rep *report.Report) {
	chapterTitle(pdf, "System Information")
	valueWidth := writableWidth - labelWidth

	for _, row := range systemInfoRows(rep.SystemInfo) {
		pdf.SetFont("Helvetica", "B", 10)
		x, y := pdf.GetXY()
		pdf.CellFormat(labelWidth, 6, row.label, "", 0, "L", false, 0, "")
		pdf.SetXY(x+labelWidth, y)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(valueWidth, 6, row.value, "", "L", false)
		pdf.SetX(marginLeft)
	}
	pdf.Ln(8)
}

type infoRow struct {
	label string
	value string
}

// systemInfoRows flattens SystemInfo into label/value rows in schema order.
// Network keeps its per-interface line breaks; every other multi-line value
// collapses to a comma-separated single line before wrapping.
func systemInfoRows(info facts.SystemInfo) []infoRow {
	rows := []infoRow{
		{"Hostname", info.Hostname},
		{"OS", info.OS},
		{"Architecture", info.Architecture},
		{"Kernel", info.Kernel},
		{"CPU", info.CPU},
		{"RAM", info.RAM},
		{"Storage", info.Storage},
		{"Network", info.Network},
	}
	for i := range rows {
		if rows[i].label != "Network" {
			rows[i].value = strings.ReplaceAll(rows[i].value, "\n", ", ")
		}
	}
	return rows
}

func (r *Renderer) taskTable(pdf *fpdf.Fpdf, rep *report.Report) {
	chapterTitle(pdf, "Task Execution Details")

	pdf.SetFillColor(220, 220, 220)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colWidthTask, 8, "Task", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colWidthStatus, 8, "Status", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colWidthChanged, 8, "Chg", "1", 1, "C", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(0, 0, 0)

	for _, t := range rep.PlaybookExecution {
		pdf.CellFormat(colWidthTask, 7, "  "+TruncateName(t.Task), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidthStatus, 7, string(t.Status), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidthChanged, 7, t.Changed, "1", 1, "C", false, 0, "")
	}
}

// TruncateName bounds a cleaned task name to 90 characters: longer names
// keep their first 87 characters plus a "..." marker.
func TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) <= maxTaskNameLen {
		return name
	}
	return string(runes[:truncatedLen]) + "..."
}
