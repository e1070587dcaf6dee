package pdf

import "fmt"

// PageIndexOutOfRangeError reports a resolved index beyond the current page
// count. The requesting step is skipped with a warning; generation
// continues.
type PageIndexOutOfRangeError struct {
	Original int
	Resolved int
	Pages    int
}

func (e *PageIndexOutOfRangeError) Error() string {
	return fmt.Sprintf("page index out of range: original %d resolves to %d with %d page(s)",
		e.Original, e.Resolved, e.Pages)
}

type pageEdit struct {
	at    int // absolute index at the time of the edit
	count int // positive for insertions, negative for removals
}

// PageIndexTracker resolves page indices defined against the original
// template into current absolute indices. Every insertion and removal is
// recorded here, in order, instead of hand-carrying integer offsets through
// the later pipeline stages.
type PageIndexTracker struct {
	originalCount int
	currentCount  int
	edits         []pageEdit
}

// NewPageIndexTracker starts tracking from the template's page count.
func NewPageIndexTracker(originalCount int) *PageIndexTracker {
	return &PageIndexTracker{originalCount: originalCount, currentCount: originalCount}
}

// OriginalCount returns the template page count the tracker started from.
func (t *PageIndexTracker) OriginalCount() int { return t.originalCount }

// CurrentCount returns the page count after all recorded edits.
func (t *PageIndexTracker) CurrentCount() int { return t.currentCount }

// RecordInsert records count pages inserted at the given absolute index.
func (t *PageIndexTracker) RecordInsert(at, count int) {
	if count <= 0 {
		return
	}
	t.edits = append(t.edits, pageEdit{at: at, count: count})
	t.currentCount += count
}

// RecordRemove records count pages removed at the given absolute index.
func (t *PageIndexTracker) RecordRemove(at, count int) {
	if count <= 0 {
		return
	}
	t.edits = append(t.edits, pageEdit{at: at, count: -count})
	t.currentCount -= count
}

// Resolve maps a 0-based index into the original template to its current
// absolute index, replaying every recorded edit in order.
func (t *PageIndexTracker) Resolve(original int) (int, error) {
	idx := original
	for _, e := range t.edits {
		if e.count > 0 {
			if e.at <= idx {
				idx += e.count
			}
			continue
		}
		removed := -e.count
		switch {
		case e.at+removed <= idx:
			idx -= removed
		case e.at <= idx:
			// The page itself was removed.
			return 0, &PageIndexOutOfRangeError{Original: original, Resolved: idx, Pages: t.currentCount}
		}
	}
	if idx < 0 || idx >= t.currentCount {
		return 0, &PageIndexOutOfRangeError{Original: original, Resolved: idx, Pages: t.currentCount}
	}
	return idx, nil
}
