package pdf

import (
	"errors"
	"testing"
)

func TestPageIndexTrackerNoEdits(t *testing.T) {
	tr := NewPageIndexTracker(10)
	for i := 0; i < 10; i++ {
		got, err := tr.Resolve(i)
		if err != nil || got != i {
			t.Errorf("Resolve(%d) = %d, %v; want identity before any edit", i, got, err)
		}
	}
}

func TestPageIndexTrackerInsert(t *testing.T) {
	tr := NewPageIndexTracker(10)
	tr.RecordInsert(5, 3)

	tests := []struct {
		original int
		want     int
	}{
		{0, 0},
		{4, 4},
		{5, 8}, // at or after the insertion point shifts down
		{9, 12},
	}
	for _, tt := range tests {
		got, err := tr.Resolve(tt.original)
		if err != nil {
			t.Fatalf("Resolve(%d) error = %v", tt.original, err)
		}
		if got != tt.want {
			t.Errorf("Resolve(%d) = %d, want %d", tt.original, got, tt.want)
		}
	}
	if tr.CurrentCount() != 13 {
		t.Errorf("CurrentCount() = %d, want 13", tr.CurrentCount())
	}
}

func TestPageIndexTrackerRemove(t *testing.T) {
	tr := NewPageIndexTracker(10)
	tr.RecordRemove(3, 1)

	if got, err := tr.Resolve(2); err != nil || got != 2 {
		t.Errorf("Resolve(2) = %d, %v; pages before the removal keep their index", got, err)
	}
	if got, err := tr.Resolve(7); err != nil || got != 6 {
		t.Errorf("Resolve(7) = %d, %v; pages after the removal shift up", got, err)
	}

	_, err := tr.Resolve(3)
	var oor *PageIndexOutOfRangeError
	if !errors.As(err, &oor) {
		t.Errorf("Resolve(3) error = %v, want PageIndexOutOfRangeError for the removed page", err)
	}
}

func TestPageIndexTrackerInsertThenMove(t *testing.T) {
	// The negative arbitration sequence: insert 2 table pages at index 5,
	// then relocate original page 6 to sit right after them.
	tr := NewPageIndexTracker(9)
	tr.RecordInsert(5, 2)

	src, err := tr.Resolve(6)
	if err != nil {
		t.Fatalf("Resolve(6) error = %v", err)
	}
	if src != 8 {
		t.Fatalf("Resolve(6) = %d, want 8", src)
	}
	tr.RecordRemove(src, 1)
	tr.RecordInsert(7, 1)

	// Original page 7 now sits after the relocation target.
	got, err := tr.Resolve(7)
	if err != nil {
		t.Fatalf("Resolve(7) error = %v", err)
	}
	if got != 9 {
		t.Errorf("Resolve(7) = %d, want 9", got)
	}
	if tr.CurrentCount() != 11 {
		t.Errorf("CurrentCount() = %d, want 11", tr.CurrentCount())
	}
}

func TestPageIndexTrackerOutOfRange(t *testing.T) {
	tr := NewPageIndexTracker(3)
	_, err := tr.Resolve(5)
	var oor *PageIndexOutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("Resolve(5) error = %v, want PageIndexOutOfRangeError", err)
	}
	if oor.Original != 5 || oor.Pages != 3 {
		t.Errorf("error carries %d/%d, want original 5 and 3 pages", oor.Original, oor.Pages)
	}
}
