package pdf

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/go-pdf/fpdf"

	"github.com/fieldscope/report-engine/internal/pdf/render"
)

// Flattening renders at a fixed supersample of the 72dpi page grid so the
// rasterized pages stay crisp in print.
const (
	DefaultFlattenDPI = 288.0
	flattenWorkers    = 4
)

// Flattener replaces every page with a lossless raster of its final
// appearance, producing a document with zero interactive fields. It must
// run strictly last: rasterization bakes in whatever state the page carries
// at that moment.
type Flattener struct {
	backend   render.Backend
	dpi       float64
	debugMode bool
}

// NewFlattener builds a flattener over an explicitly constructed backend
// handle. A nil backend is legal and makes Flatten report
// render.ErrNoBackend so callers can skip the stage.
func NewFlattener(backend render.Backend, dpi float64, debugMode bool) *Flattener {
	if dpi <= 0 {
		dpi = DefaultFlattenDPI
	}
	return &Flattener{backend: backend, dpi: dpi, debugMode: debugMode}
}

// Flatten rasterizes every page and rebuilds the document from the rasters.
// Pages render in parallel; the rebuilt document keeps the original page
// order and each page's effective (rotation-resolved) size, so nothing is
// stretched when the rotation entry disappears with the original page.
func (f *Flattener) Flatten(ctx context.Context, doc *Document) error {
	if f.backend == nil {
		return render.ErrNoBackend
	}

	geometry := doc.Geometry()
	n := len(geometry)
	if n == 0 {
		return fmt.Errorf("document has no pages to flatten")
	}
	source := doc.Bytes()

	rasters := make([][]byte, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	sem := make(chan struct{}, flattenWorkers)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			rasters[i], errs[i] = f.backend.RenderPage(ctx, source, i+1, f.dpi)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("failed to render page %d: %w", i+1, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	out := fpdf.New("P", "pt", "Letter", "")
	out.SetAutoPageBreak(false, 0)
	for i, g := range geometry {
		w, h := g.EffectiveSize()
		out.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		name := fmt.Sprintf("page-%d", i+1)
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		out.RegisterImageOptionsReader(name, opts, bytes.NewReader(rasters[i]))
		out.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := out.Output(&buf); err != nil {
		return fmt.Errorf("failed to assemble flattened document: %w", err)
	}
	if f.debugMode {
		log.Printf("flatten: %d page(s) rasterized at %.0fdpi via %s", n, f.dpi, f.backend.Name())
	}
	return doc.replace(buf.Bytes())
}
