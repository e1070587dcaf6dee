// Package pdf implements the binary document manipulation used by report
// generation: template loading, AcroForm filling, synthesized table pages,
// attachment embedding, page arbitration and full-page flattening.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageGeometry is one page's recorded geometry. Width and Height are the
// MediaBox dimensions in points; Rotation is the /Rotate entry normalized to
// 0, 90, 180 or 270.
type PageGeometry struct {
	Width    float64
	Height   float64
	Rotation int
}

// EffectiveSize returns the displayed page size: a 90 or 270 degree rotation
// swaps width and height. Flattening replaces pages at their effective size
// so no dimension is stretched when the rotation entry disappears.
func (g PageGeometry) EffectiveSize() (w, h float64) {
	if g.Rotation%180 != 0 {
		return g.Height, g.Width
	}
	return g.Width, g.Height
}

// Document owns the evolving PDF byte stream of one generation run. Every
// mutation is a read-modify-write round trip through pdfcpu; the handle is
// exclusively owned by a single call and never shared.
type Document struct {
	data     []byte
	conf     *model.Configuration
	geometry []PageGeometry
}

// LoadDocument parses the given bytes with relaxed validation and records
// per-page geometry.
func LoadDocument(data []byte) (*Document, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	d := &Document{data: data, conf: conf}
	if err := d.refresh(); err != nil {
		return nil, err
	}
	return d, nil
}

// Bytes returns the current document bytes. The slice is owned by the
// document; callers must not modify it.
func (d *Document) Bytes() []byte { return d.data }

// PageCount returns the current number of pages.
func (d *Document) PageCount() int { return len(d.geometry) }

// Geometry returns a copy of the per-page geometry list.
func (d *Document) Geometry() []PageGeometry {
	out := make([]PageGeometry, len(d.geometry))
	copy(out, d.geometry)
	return out
}

// readContext parses the current bytes into a pdfcpu context.
func (d *Document) readContext() (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(d.data), d.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	return ctx, nil
}

// writeContext serializes a mutated context back into the document.
func (d *Document) writeContext(ctx *model.Context) error {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return fmt.Errorf("failed to write PDF context: %w", err)
	}
	d.data = buf.Bytes()
	return d.refresh()
}

// replace swaps in a whole new byte stream produced by a pdfcpu api call.
func (d *Document) replace(data []byte) error {
	old := d.data
	d.data = data
	if err := d.refresh(); err != nil {
		d.data = old
		return err
	}
	return nil
}

// refresh re-reads page count and geometry from the current bytes.
func (d *Document) refresh() error {
	ctx, err := d.readContext()
	if err != nil {
		return err
	}
	geo := make([]PageGeometry, 0, ctx.PageCount)
	for pageNr := 1; pageNr <= ctx.PageCount; pageNr++ {
		g, err := pageGeometry(ctx, pageNr)
		if err != nil {
			return err
		}
		geo = append(geo, g)
	}
	d.geometry = geo
	return nil
}

// pageGeometry reads MediaBox and rotation for a single page.
func pageGeometry(ctx *model.Context, pageNr int) (PageGeometry, error) {
	_, _, inhAttrs, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return PageGeometry{}, fmt.Errorf("failed to read page %d dict: %w", pageNr, err)
	}
	g := PageGeometry{Width: 612, Height: 792} // letter fallback
	if inhAttrs != nil {
		if inhAttrs.MediaBox != nil {
			g.Width = inhAttrs.MediaBox.Width()
			g.Height = inhAttrs.MediaBox.Height()
		}
		g.Rotation = normalizeRotation(inhAttrs.Rotate)
	}
	return g, nil
}

func normalizeRotation(rot int) int {
	rot %= 360
	if rot < 0 {
		rot += 360
	}
	// Round stray values to the nearest quarter turn; PDF only defines
	// multiples of 90.
	return (rot / 90 * 90) % 360
}
