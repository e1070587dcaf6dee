package pdf

import (
	"github.com/go-pdf/fpdf"
)

// FontMetrics estimates rendered text widths from the core Helvetica
// metrics. Template form fields and synthesized table pages both use
// Helvetica, so one measuring instance serves every layout decision.
type FontMetrics struct {
	pdf *fpdf.Fpdf
}

// NewFontMetrics constructs a metrics provider. The backing document is
// never rendered; it exists only for width measurement.
func NewFontMetrics() *FontMetrics {
	p := fpdf.New("P", "pt", "Letter", "")
	p.SetFont("Helvetica", "", 12)
	return &FontMetrics{pdf: p}
}

// TextWidth returns the width in points of s at the given font size.
func (m *FontMetrics) TextWidth(s string, size float64) float64 {
	m.pdf.SetFontSize(size)
	return m.pdf.GetStringWidth(s)
}

// FitFontSize shrinks the starting size until the text fits the available
// width, never below floor. Text that fits at the starting size keeps it.
func (m *FontMetrics) FitFontSize(s string, start, available, floor float64) float64 {
	if s == "" || available <= 0 {
		return start
	}
	w := m.TextWidth(s, start)
	if w <= available {
		return start
	}
	size := start * available / w
	if size < floor {
		size = floor
	}
	return size
}
