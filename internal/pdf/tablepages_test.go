package pdf

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func sampleTableData(dataRows int) *TableData {
	grid := [][]string{
		{"Room", "Side", "Component", "Substrate", "Color", "Result", "Mode", "Note", "Internal"},
	}
	for i := 0; i < dataRows; i++ {
		grid = append(grid, []string{"Kitchen", "A", "Wall", "Drywall", "White", "Negative", "", "", ""})
	}
	return &TableData{
		Grid:              grid,
		HeaderRow:         0,
		AnnotationColumns: []int{7, 8},
		PassFailColumn:    5,
		CalibrationColumn: 6,
	}
}

func TestTableLayoutDefaults(t *testing.T) {
	s := NewTableSynthesizer(NewFontMetrics(), false)
	layout := s.Layout(sampleTableData(10))

	if layout.FontSize != baseTableFontSize {
		t.Errorf("FontSize = %v, want base size when nothing overflows", layout.FontSize)
	}
	if len(layout.Columns) != 7 {
		t.Errorf("got %d visible columns, want 7 (annotation columns excluded)", len(layout.Columns))
	}
	// One header row plus fixed-height data rows per page.
	if layout.RowsPerPage != 39 {
		t.Errorf("RowsPerPage = %d, want 39", layout.RowsPerPage)
	}
}

func TestTableLayoutShrinksGlobally(t *testing.T) {
	s := NewTableSynthesizer(NewFontMetrics(), false)
	data := sampleTableData(5)
	data.Grid[3][0] = "An unusually long room description that will not fit"

	layout := s.Layout(data)
	if layout.FontSize >= baseTableFontSize {
		t.Errorf("FontSize = %v, one overflowing cell must shrink the shared size", layout.FontSize)
	}
	if layout.FontSize < minTableFontSize {
		t.Errorf("FontSize = %v, below floor %v", layout.FontSize, minTableFontSize)
	}
}

func TestTableLayoutFontFloor(t *testing.T) {
	s := NewTableSynthesizer(NewFontMetrics(), false)
	data := sampleTableData(2)
	data.Grid[1][2] = strings.Repeat("overflow ", 60)

	layout := s.Layout(data)
	if layout.FontSize != minTableFontSize {
		t.Errorf("FontSize = %v, want clamp at floor %v", layout.FontSize, minTableFontSize)
	}
}

func TestTableLayoutDeterministic(t *testing.T) {
	s := NewTableSynthesizer(NewFontMetrics(), false)
	data := sampleTableData(20)
	first := s.Layout(data)
	for i := 0; i < 5; i++ {
		if got := s.Layout(data); !reflect.DeepEqual(got, first) {
			t.Fatalf("Layout() produced %+v then %+v for identical input", first, got)
		}
	}
}

func TestCalibrationRows(t *testing.T) {
	data := sampleTableData(10)
	// Row 6 is flagged through its calibration cell.
	data.Grid[7][6] = "Calibration check"

	for i := 0; i < calibrationRowCount; i++ {
		if !data.IsCalibrationRow(i) {
			t.Errorf("leading data row %d must always be calibration", i)
		}
	}
	if data.IsCalibrationRow(5) {
		t.Error("row 5 has no calibration marker")
	}
	if !data.IsCalibrationRow(6) {
		t.Error("row 6 carries a calibration marker")
	}
}

func TestPositiveRows(t *testing.T) {
	data := sampleTableData(10)
	data.Grid[6][5] = "Fail"     // row 5
	data.Grid[2][5] = "Positive" // row 1, inside the calibration block

	if !data.IsPositiveRow(5) {
		t.Error("row 5 carries a positive marker")
	}
	if data.IsPositiveRow(1) {
		t.Error("calibration rows are never positive")
	}
	if data.IsPositiveRow(7) {
		t.Error("row 7 is negative")
	}
}

func TestPositiveMarkerVariants(t *testing.T) {
	for _, marker := range []string{"Positive", "pos", "P", "+", "FAIL", "f"} {
		data := sampleTableData(6)
		data.Grid[6][5] = marker
		if !data.IsPositiveRow(5) {
			t.Errorf("marker %q must classify the row as positive", marker)
		}
	}
	for _, marker := range []string{"Negative", "passed", ""} {
		data := sampleTableData(6)
		data.Grid[6][5] = marker
		if data.IsPositiveRow(5) {
			t.Errorf("marker %q must not classify the row as positive", marker)
		}
	}
}

func TestRenderPageCount(t *testing.T) {
	s := NewTableSynthesizer(NewFontMetrics(), false)

	tests := []struct {
		rows      int
		wantPages int
	}{
		{1, 1},
		{39, 1},
		{40, 2},
		{100, 3},
	}
	for _, tt := range tests {
		pdfBytes, pages, err := s.Render(sampleTableData(tt.rows))
		if err != nil {
			t.Fatalf("Render(%d rows) error = %v", tt.rows, err)
		}
		if pages != tt.wantPages {
			t.Errorf("Render(%d rows) = %d pages, want %d", tt.rows, pages, tt.wantPages)
		}
		if !bytes.HasPrefix(pdfBytes, []byte("%PDF-")) {
			t.Errorf("Render(%d rows) did not produce a PDF", tt.rows)
		}
	}
}

func TestRenderNoVisibleColumns(t *testing.T) {
	s := NewTableSynthesizer(NewFontMetrics(), false)
	data := &TableData{
		Grid:              [][]string{{"a", "b"}},
		AnnotationColumns: []int{0, 1},
	}
	if _, _, err := s.Render(data); err == nil {
		t.Error("expected error when every column is excluded")
	}
}
