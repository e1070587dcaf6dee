package pdf

import "testing"

func TestTextWidthScalesWithSize(t *testing.T) {
	m := NewFontMetrics()
	small := m.TextWidth("123 Main Street", 7)
	large := m.TextWidth("123 Main Street", 14)
	if small <= 0 {
		t.Fatalf("TextWidth = %v, want positive", small)
	}
	if large <= small {
		t.Errorf("width at 14pt (%v) must exceed width at 7pt (%v)", large, small)
	}
}

func TestFitFontSizeKeepsFittingText(t *testing.T) {
	m := NewFontMetrics()
	if got := m.FitFontSize("ok", 9, 200, 6); got != 9 {
		t.Errorf("FitFontSize = %v, want the starting size for text that fits", got)
	}
}

func TestFitFontSizeShrinks(t *testing.T) {
	m := NewFontMetrics()
	long := "A very long value that cannot possibly fit in a narrow field box"
	got := m.FitFontSize(long, 9, 80, 6)
	if got >= 9 {
		t.Errorf("FitFontSize = %v, want shrunk below the starting size", got)
	}
	if got < 6 {
		t.Errorf("FitFontSize = %v, below the floor", got)
	}
}

func TestFitFontSizeFloor(t *testing.T) {
	m := NewFontMetrics()
	long := "An extremely long value that overflows by a huge factor and then some more"
	if got := m.FitFontSize(long, 9, 10, 6); got != 6 {
		t.Errorf("FitFontSize = %v, want clamp at the floor", got)
	}
}

func TestFitFontSizeEmptyValue(t *testing.T) {
	m := NewFontMetrics()
	if got := m.FitFontSize("", 9, 50, 6); got != 9 {
		t.Errorf("FitFontSize = %v, empty text keeps the starting size", got)
	}
}
