package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// InsertDocumentAt inserts every page of other into this document so the
// first inserted page lands at the given 0-based index. Implemented as a
// merge followed by a page collect, so geometry of every page is carried
// over untouched.
func (d *Document) InsertDocumentAt(other []byte, at int) error {
	if at < 0 || at > d.PageCount() {
		return &PageIndexOutOfRangeError{Original: at, Resolved: at, Pages: d.PageCount()}
	}

	otherDoc, err := LoadDocument(other)
	if err != nil {
		return fmt.Errorf("failed to read inserted document: %w", err)
	}

	var merged bytes.Buffer
	readers := []io.ReadSeeker{bytes.NewReader(d.data), bytes.NewReader(other)}
	if err := api.MergeRaw(readers, &merged, false, d.conf); err != nil {
		return fmt.Errorf("failed to merge documents: %w", err)
	}

	main := d.PageCount()
	added := otherDoc.PageCount()
	order := make([]int, 0, main+added)
	for p := 1; p <= at; p++ {
		order = append(order, p)
	}
	for p := main + 1; p <= main+added; p++ {
		order = append(order, p)
	}
	for p := at + 1; p <= main; p++ {
		order = append(order, p)
	}

	collected, err := collectPages(merged.Bytes(), order, d.conf)
	if err != nil {
		return err
	}
	return d.replace(collected)
}

// AppendDocument adds every page of other to the end of this document.
func (d *Document) AppendDocument(other []byte) error {
	var merged bytes.Buffer
	readers := []io.ReadSeeker{bytes.NewReader(d.data), bytes.NewReader(other)}
	if err := api.MergeRaw(readers, &merged, false, d.conf); err != nil {
		return fmt.Errorf("failed to append document: %w", err)
	}
	return d.replace(merged.Bytes())
}

// MovePage relocates the page at 0-based index from to 0-based index to,
// copy-then-delete semantics: the page keeps its exact width, height and
// rotation.
func (d *Document) MovePage(from, to int) error {
	n := d.PageCount()
	if from < 0 || from >= n {
		return &PageIndexOutOfRangeError{Original: from, Resolved: from, Pages: n}
	}
	if to < 0 || to >= n {
		return &PageIndexOutOfRangeError{Original: to, Resolved: to, Pages: n}
	}
	if from == to {
		return nil
	}

	order := make([]int, 0, n)
	for p := 1; p <= n; p++ {
		if p != from+1 {
			order = append(order, p)
		}
	}
	// Splice the moved page back in at its destination.
	order = append(order[:to], append([]int{from + 1}, order[to:]...)...)

	collected, err := collectPages(d.data, order, d.conf)
	if err != nil {
		return err
	}
	return d.replace(collected)
}

// RemovePage deletes the page at the given 0-based index.
func (d *Document) RemovePage(at int) error {
	if at < 0 || at >= d.PageCount() {
		return &PageIndexOutOfRangeError{Original: at, Resolved: at, Pages: d.PageCount()}
	}
	var out bytes.Buffer
	sel := []string{strconv.Itoa(at + 1)}
	if err := api.RemovePages(bytes.NewReader(d.data), &out, sel, d.conf); err != nil {
		return fmt.Errorf("failed to remove page %d: %w", at, err)
	}
	return d.replace(out.Bytes())
}

// collectPages produces a new document containing the 1-based pages of data
// in exactly the given order.
func collectPages(data []byte, order []int, conf *model.Configuration) ([]byte, error) {
	sel := make([]string, len(order))
	for i, p := range order {
		sel[i] = strconv.Itoa(p)
	}
	var out bytes.Buffer
	if err := api.Collect(bytes.NewReader(data), &out, sel, conf); err != nil {
		return nil, fmt.Errorf("failed to collect pages: %w", err)
	}
	return out.Bytes(), nil
}

// ArbitrationLayout names the template page indices the branching logic
// pivots on. All values are 0-based indices into the ORIGINAL template and
// are resolved through the PageIndexTracker before use. They are tied to
// one specific template revision and therefore configurable constants, not
// derived from geometry.
type ArbitrationLayout struct {
	// NegativeInsertIndex is where table pages go on the negative branch:
	// immediately before this template page.
	NegativeInsertIndex int
	// NegativeRelocateIndex is the template page relocated to sit
	// immediately after the inserted table pages on the negative branch.
	NegativeRelocateIndex int
	// PositiveInsertIndex is the template page the table pages follow on
	// the positive branch.
	PositiveInsertIndex int
	// NegativeOnlyIndex is the template page removed on the positive
	// branch.
	NegativeOnlyIndex int
}

// DefaultArbitrationLayout matches the standard inspection template.
func DefaultArbitrationLayout() ArbitrationLayout {
	return ArbitrationLayout{
		NegativeInsertIndex:   5,
		NegativeRelocateIndex: 6,
		PositiveInsertIndex:   7,
		NegativeOnlyIndex:     5,
	}
}

// Arbitrate applies the data-driven page branching: table pages are placed
// according to the dataset classification and branch-specific template
// pages are relocated or removed. Index resolution failures skip the
// affected step and are returned as warnings; only document-level faults
// are errors.
func Arbitrate(doc *Document, tracker *PageIndexTracker, layout ArbitrationLayout,
	tablePages []byte, tableCount int, positive bool,
) (warnings []string, err error) {
	if positive {
		return arbitratePositive(doc, tracker, layout, tablePages, tableCount)
	}
	return arbitrateNegative(doc, tracker, layout, tablePages, tableCount)
}

func arbitrateNegative(doc *Document, tracker *PageIndexTracker, layout ArbitrationLayout,
	tablePages []byte, tableCount int,
) (warnings []string, err error) {
	at, rerr := tracker.Resolve(layout.NegativeInsertIndex)
	if rerr != nil {
		return []string{rerr.Error()}, nil
	}
	if err := doc.InsertDocumentAt(tablePages, at); err != nil {
		return warnings, err
	}
	tracker.RecordInsert(at, tableCount)

	src, rerr := tracker.Resolve(layout.NegativeRelocateIndex)
	if rerr != nil {
		warnings = append(warnings, rerr.Error())
		return warnings, nil
	}
	dst := at + tableCount // immediately after the inserted table pages
	if err := doc.MovePage(src, dst); err != nil {
		if _, ok := err.(*PageIndexOutOfRangeError); ok {
			warnings = append(warnings, err.Error())
			return warnings, nil
		}
		return warnings, err
	}
	tracker.RecordRemove(src, 1)
	tracker.RecordInsert(dst, 1)
	return warnings, nil
}

func arbitratePositive(doc *Document, tracker *PageIndexTracker, layout ArbitrationLayout,
	tablePages []byte, tableCount int,
) (warnings []string, err error) {
	after, rerr := tracker.Resolve(layout.PositiveInsertIndex)
	if rerr != nil {
		return []string{rerr.Error()}, nil
	}
	at := after + 1 // table pages follow the designated page
	if err := doc.InsertDocumentAt(tablePages, at); err != nil {
		return warnings, err
	}
	tracker.RecordInsert(at, tableCount)

	rm, rerr := tracker.Resolve(layout.NegativeOnlyIndex)
	if rerr != nil {
		warnings = append(warnings, rerr.Error())
		return warnings, nil
	}
	if err := doc.RemovePage(rm); err != nil {
		if _, ok := err.(*PageIndexOutOfRangeError); ok {
			warnings = append(warnings, err.Error())
			return warnings, nil
		}
		return warnings, err
	}
	tracker.RecordRemove(rm, 1)
	return warnings, nil
}
