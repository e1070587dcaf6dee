package pdf

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Table page layout constants (points, US Letter portrait).
const (
	tablePageWidth    = 612.0
	tablePageHeight   = 792.0
	tablePageMargin   = 36.0
	tableRowHeight    = 18.0
	tableCellPadding  = 2.0
	baseTableFontSize = 7.0
	minTableFontSize  = 4.0
)

// positiveMarkers are the pass/fail cell values that flag a sample row as
// positive, matched case-insensitively.
var positiveMarkers = map[string]bool{
	"positive": true,
	"pos":      true,
	"p":        true,
	"+":        true,
	"fail":     true,
	"f":        true,
}

// calibrationRowCount is the number of leading data rows that are always
// instrument calibration, regardless of cell content.
const calibrationRowCount = 4

// TableData is the synthesizer's view of the extracted grid.
type TableData struct {
	Grid      [][]string
	HeaderRow int

	// AnnotationColumns are excluded from the rendered table.
	AnnotationColumns []int
	// PassFailColumn drives row highlighting.
	PassFailColumn int
	// CalibrationColumn marks instrument self-test rows past the leading
	// calibration block.
	CalibrationColumn int
}

// DataRows returns the rows below the header row.
func (t *TableData) DataRows() [][]string {
	if t.HeaderRow+1 >= len(t.Grid) {
		return nil
	}
	return t.Grid[t.HeaderRow+1:]
}

// IsCalibrationRow reports whether the data row at the given index (0-based
// within the data rows) is a calibration row: the leading block always is,
// and any later row whose calibration cell mentions "cal".
func (t *TableData) IsCalibrationRow(dataRowIdx int) bool {
	if dataRowIdx < calibrationRowCount {
		return true
	}
	rows := t.DataRows()
	if dataRowIdx >= len(rows) {
		return false
	}
	return strings.Contains(strings.ToLower(cellAt(rows[dataRowIdx], t.CalibrationColumn)), "cal")
}

// IsPositiveRow reports whether the data row is a positive (highlighted)
// sample: its pass/fail cell matches a positive marker and it is not a
// calibration row.
func (t *TableData) IsPositiveRow(dataRowIdx int) bool {
	if t.IsCalibrationRow(dataRowIdx) {
		return false
	}
	rows := t.DataRows()
	if dataRowIdx >= len(rows) {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(cellAt(rows[dataRowIdx], t.PassFailColumn)))
	return positiveMarkers[v]
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// visibleColumns returns the column indices kept in the rendered table, in
// grid order.
func (t *TableData) visibleColumns() []int {
	excluded := make(map[int]bool, len(t.AnnotationColumns))
	for _, c := range t.AnnotationColumns {
		excluded[c] = true
	}
	width := 0
	for _, row := range t.Grid {
		if len(row) > width {
			width = len(row)
		}
	}
	var cols []int
	for c := 0; c < width; c++ {
		if !excluded[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// TableLayout is the computed geometry shared by every rendered table page.
// Layout is a pure function of the data, so identical inputs produce
// identical pages.
type TableLayout struct {
	FontSize    float64
	ColumnWidth float64
	RowsPerPage int
	Columns     []int
	MaxLines    int
}

// TableSynthesizer renders dataset rows into standalone table pages.
type TableSynthesizer struct {
	metrics   *FontMetrics
	debugMode bool
}

// NewTableSynthesizer constructs a synthesizer over the shared font metrics.
func NewTableSynthesizer(metrics *FontMetrics, debugMode bool) *TableSynthesizer {
	return &TableSynthesizer{metrics: metrics, debugMode: debugMode}
}

// Layout computes the single global font size and the fixed grid geometry.
// Every visible cell is measured at the base size; any overflow shrinks the
// shared size by that cell's overflow ratio, so one wide cell anywhere
// shrinks every column's text.
func (s *TableSynthesizer) Layout(data *TableData) TableLayout {
	cols := data.visibleColumns()
	layout := TableLayout{
		FontSize: baseTableFontSize,
		Columns:  cols,
	}
	if len(cols) == 0 {
		return layout
	}

	usable := tablePageWidth - 2*tablePageMargin - 2*tableCellPadding
	layout.ColumnWidth = usable / float64(len(cols))
	available := layout.ColumnWidth - 2*tableCellPadding

	rows := [][]string{}
	if data.HeaderRow < len(data.Grid) {
		rows = append(rows, data.Grid[data.HeaderRow])
	}
	rows = append(rows, data.DataRows()...)

	for _, row := range rows {
		for _, c := range cols {
			text := cellAt(row, c)
			if text == "" {
				continue
			}
			w := s.metrics.TextWidth(text, baseTableFontSize)
			if w <= available {
				continue
			}
			candidate := baseTableFontSize * available / w
			if candidate < layout.FontSize {
				layout.FontSize = candidate
			}
		}
	}
	if layout.FontSize < minTableFontSize {
		layout.FontSize = minTableFontSize
	}

	// One header row per page plus however many fixed-height data rows fit.
	availableHeight := tablePageHeight - 2*tablePageMargin - tableRowHeight
	layout.RowsPerPage = int(math.Floor(availableHeight / tableRowHeight))

	lineHeight := layout.FontSize * 1.2
	layout.MaxLines = int(math.Floor((tableRowHeight - 2*tableCellPadding) / lineHeight))
	if layout.MaxLines < 1 {
		layout.MaxLines = 1
	}
	return layout
}

// Render draws the table pages and returns the standalone PDF bytes plus
// the page count.
func (s *TableSynthesizer) Render(data *TableData) ([]byte, int, error) {
	layout := s.Layout(data)
	if len(layout.Columns) == 0 {
		return nil, 0, fmt.Errorf("dataset grid has no visible columns")
	}

	dataRows := data.DataRows()
	pageCount := 1
	if layout.RowsPerPage > 0 && len(dataRows) > layout.RowsPerPage {
		pageCount = (len(dataRows) + layout.RowsPerPage - 1) / layout.RowsPerPage
	}

	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetMargins(tablePageMargin, tablePageMargin, tablePageMargin)
	doc.SetAutoPageBreak(false, 0)
	doc.SetFont("Helvetica", "", layout.FontSize)
	doc.SetLineWidth(0.5)
	doc.SetDrawColor(120, 120, 120)

	header := []string{}
	if data.HeaderRow < len(data.Grid) {
		header = data.Grid[data.HeaderRow]
	}

	for page := 0; page < pageCount; page++ {
		doc.AddPage()
		y := tablePageMargin

		doc.SetFillColor(222, 222, 222)
		s.drawRow(doc, layout, header, y, true)
		y += tableRowHeight

		start := page * layout.RowsPerPage
		end := start + layout.RowsPerPage
		if layout.RowsPerPage <= 0 || end > len(dataRows) {
			end = len(dataRows)
		}
		for i := start; i < end; i++ {
			if data.IsPositiveRow(i) {
				doc.SetFillColor(250, 200, 200)
			} else {
				doc.SetFillColor(255, 255, 255)
			}
			s.drawRow(doc, layout, dataRows[i], y, false)
			y += tableRowHeight
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to render table pages: %w", err)
	}
	if s.debugMode {
		log.Printf("table synthesis: %d row(s) over %d page(s) at %.2fpt", len(dataRows), pageCount, layout.FontSize)
	}
	return buf.Bytes(), pageCount, nil
}

// drawRow draws one fixed-height row: per-cell fill, border and greedily
// wrapped text. Words beyond the line budget are dropped.
func (s *TableSynthesizer) drawRow(doc *fpdf.Fpdf, layout TableLayout, row []string, y float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	doc.SetFont("Helvetica", style, layout.FontSize)

	lineHeight := layout.FontSize * 1.2
	x := tablePageMargin + tableCellPadding
	for _, c := range layout.Columns {
		doc.Rect(x, y, layout.ColumnWidth, tableRowHeight, "FD")

		lines := s.wrapCell(cellAt(row, c), layout)
		textY := y + tableCellPadding + layout.FontSize
		for _, line := range lines {
			doc.Text(x+tableCellPadding, textY, line)
			textY += lineHeight
		}
		x += layout.ColumnWidth
	}
}

// wrapCell wraps cell text greedily into the row's line budget; whatever
// does not fit is dropped.
func (s *TableSynthesizer) wrapCell(text string, layout TableLayout) []string {
	if text == "" {
		return nil
	}
	available := layout.ColumnWidth - 2*tableCellPadding
	words := strings.Fields(text)
	var lines []string
	var cur string
	for _, w := range words {
		candidate := w
		if cur != "" {
			candidate = cur + " " + w
		}
		if s.metrics.TextWidth(candidate, layout.FontSize) <= available || cur == "" {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		if len(lines) >= layout.MaxLines {
			return lines
		}
		cur = w
	}
	if cur != "" && len(lines) < layout.MaxLines {
		lines = append(lines, cur)
	}
	return lines
}
