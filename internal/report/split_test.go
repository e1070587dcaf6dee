package report

import (
	"strings"
	"testing"
)

func TestSplitLongTextFits(t *testing.T) {
	head, tail, split := SplitLongText("123 Main Street")
	if split {
		t.Fatalf("expected no split for a short value, got head=%q tail=%q", head, tail)
	}
	if head != "123 Main Street" || tail != "" {
		t.Errorf("short value altered: head=%q tail=%q", head, tail)
	}
}

func TestSplitLongTextExactCapacity(t *testing.T) {
	s := strings.Repeat("a", 50)
	if _, _, split := SplitLongText(s); split {
		t.Errorf("value of exactly %d characters should not split", len(s))
	}
}

func TestSplitLongTextBreakInWindow(t *testing.T) {
	// Break characters at 20 and 40; the last one inside [35,50] wins.
	s := strings.Repeat("a", 20) + " " + strings.Repeat("b", 19) + " " + strings.Repeat("c", 30)
	head, tail, split := SplitLongText(s)
	if !split {
		t.Fatal("expected split")
	}
	if len(head) != 41 {
		t.Errorf("head length = %d, want 41 (cut after the break at index 40)", len(head))
	}
	if head+tail != s {
		t.Error("split lost characters")
	}
}

func TestSplitLongTextBreakPastWindow(t *testing.T) {
	// No break inside the window; the first break after it is used so a
	// token is not cut in half.
	s := strings.Repeat("a", 52) + " " + strings.Repeat("b", 8)
	head, tail, split := SplitLongText(s)
	if !split {
		t.Fatal("expected split")
	}
	if len(head) != 53 {
		t.Errorf("head length = %d, want 53", len(head))
	}
	if len(tail) != 8 {
		t.Errorf("tail length = %d, want 8", len(tail))
	}
}

func TestSplitLongTextNoBreak(t *testing.T) {
	s := strings.Repeat("x", 70)
	head, tail, split := SplitLongText(s)
	if !split {
		t.Fatal("expected split")
	}
	if len(head) != 50 || len(tail) != 20 {
		t.Errorf("hard cut = %d/%d, want 50/20", len(head), len(tail))
	}
}

func TestSplitLongTextBreakCharacters(t *testing.T) {
	for _, c := range []byte{' ', '\t', ',', ';', '.', '-', '/'} {
		s := strings.Repeat("a", 40) + string(c) + strings.Repeat("b", 20)
		head, _, split := SplitLongText(s)
		if !split {
			t.Fatalf("expected split for break character %q", c)
		}
		if len(head) != 41 {
			t.Errorf("break character %q: head length = %d, want 41", c, len(head))
		}
	}
}
