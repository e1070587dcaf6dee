package pdf

import (
	"bytes"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestPDF produces a document whose page widths encode page identity,
// so reordering operations can be verified through geometry alone.
func buildTestPDF(t *testing.T, widths []float64) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	for _, w := range widths {
		doc.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: 792})
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func pageWidths(d *Document) []float64 {
	geo := d.Geometry()
	widths := make([]float64, len(geo))
	for i, g := range geo {
		widths[i] = g.Width
	}
	return widths
}

func sequentialWidths(n int) []float64 {
	widths := make([]float64, n)
	for i := range widths {
		widths[i] = 500 + float64(i)
	}
	return widths
}

func TestPageGeometryEffectiveSize(t *testing.T) {
	tests := []struct {
		name  string
		g     PageGeometry
		wantW float64
		wantH float64
	}{
		{"portrait", PageGeometry{Width: 612, Height: 792}, 612, 792},
		{"rotated 90", PageGeometry{Width: 612, Height: 792, Rotation: 90}, 792, 612},
		{"rotated 180", PageGeometry{Width: 612, Height: 792, Rotation: 180}, 612, 792},
		{"rotated 270", PageGeometry{Width: 612, Height: 792, Rotation: 270}, 792, 612},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.g.EffectiveSize()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("EffectiveSize() = %v x %v, want %v x %v", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{450, 90},
		{-90, 270},
		{91, 90}, // stray values round to the quarter turn
	}
	for _, tt := range tests {
		if got := normalizeRotation(tt.in); got != tt.want {
			t.Errorf("normalizeRotation(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoadDocument(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, []float64{612, 612, 612}))
	require.NoError(t, err)

	assert.Equal(t, 3, doc.PageCount())
	for _, g := range doc.Geometry() {
		assert.InDelta(t, 612, g.Width, 0.5)
		assert.InDelta(t, 792, g.Height, 0.5)
	}
}

func TestLoadDocumentInvalid(t *testing.T) {
	_, err := LoadDocument([]byte("definitely not a pdf"))
	require.Error(t, err)
}

func TestAppendDocument(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, []float64{612, 612}))
	require.NoError(t, err)

	require.NoError(t, doc.AppendDocument(buildTestPDF(t, []float64{400})))

	require.Equal(t, 3, doc.PageCount())
	assert.InDelta(t, 400, doc.Geometry()[2].Width, 0.5)
}

func TestInsertDocumentAt(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(4)))
	require.NoError(t, err)

	require.NoError(t, doc.InsertDocumentAt(buildTestPDF(t, []float64{300, 300}), 1))

	require.Equal(t, 6, doc.PageCount())
	want := []float64{500, 300, 300, 501, 502, 503}
	got := pageWidths(doc)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.5, "page %d", i)
	}
}

func TestInsertDocumentAtEnds(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(2)))
	require.NoError(t, err)

	require.NoError(t, doc.InsertDocumentAt(buildTestPDF(t, []float64{300}), 0))
	require.NoError(t, doc.InsertDocumentAt(buildTestPDF(t, []float64{301}), doc.PageCount()))

	want := []float64{300, 500, 501, 301}
	got := pageWidths(doc)
	require.Len(t, got, 4)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.5, "page %d", i)
	}
}

func TestInsertDocumentAtOutOfRange(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(2)))
	require.NoError(t, err)

	err = doc.InsertDocumentAt(buildTestPDF(t, []float64{300}), 5)
	var oor *PageIndexOutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 2, doc.PageCount(), "failed insert must not modify the document")
}

func TestMovePage(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(4)))
	require.NoError(t, err)

	require.NoError(t, doc.MovePage(2, 0))

	want := []float64{502, 500, 501, 503}
	got := pageWidths(doc)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.5, "page %d", i)
	}
}

func TestRemovePage(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(3)))
	require.NoError(t, err)

	require.NoError(t, doc.RemovePage(1))

	require.Equal(t, 2, doc.PageCount())
	got := pageWidths(doc)
	assert.InDelta(t, 500, got[0], 0.5)
	assert.InDelta(t, 502, got[1], 0.5)
}

func TestArbitrateNegative(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(9)))
	require.NoError(t, err)
	tracker := NewPageIndexTracker(doc.PageCount())
	tables := buildTestPDF(t, []float64{300, 300})

	warnings, err := Arbitrate(doc, tracker, DefaultArbitrationLayout(), tables, 2, false)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// Tables land before original page 5; original page 6 follows them.
	want := []float64{500, 501, 502, 503, 504, 300, 300, 506, 505, 507, 508}
	got := pageWidths(doc)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.5, "page %d", i)
	}
}

func TestArbitratePositive(t *testing.T) {
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(9)))
	require.NoError(t, err)
	tracker := NewPageIndexTracker(doc.PageCount())
	tables := buildTestPDF(t, []float64{300, 300})

	warnings, err := Arbitrate(doc, tracker, DefaultArbitrationLayout(), tables, 2, true)
	require.NoError(t, err)
	assert.Empty(t, warnings)

	// Tables follow original page 7; the negative-only page 5 is removed.
	want := []float64{500, 501, 502, 503, 504, 506, 507, 300, 300, 508}
	got := pageWidths(doc)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i], got[i], 0.5, "page %d", i)
	}
}

func TestArbitrateShortTemplateWarns(t *testing.T) {
	// A template shorter than the layout indices skips placement with a
	// warning instead of failing the run.
	doc, err := LoadDocument(buildTestPDF(t, sequentialWidths(3)))
	require.NoError(t, err)
	tracker := NewPageIndexTracker(doc.PageCount())
	tables := buildTestPDF(t, []float64{300})

	warnings, err := Arbitrate(doc, tracker, DefaultArbitrationLayout(), tables, 1, false)
	require.NoError(t, err)
	assert.NotEmpty(t, warnings)
	assert.Equal(t, 3, doc.PageCount())
}
