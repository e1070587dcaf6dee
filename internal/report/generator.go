package report

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/fieldscope/report-engine/internal/pdf"
	"github.com/fieldscope/report-engine/internal/pdf/render"
)

// Offset is a fixed page coordinate in points, origin bottom-left.
type Offset struct {
	X, Y float64
}

// GeneratorOptions carries the template-specific constants and the
// process-lifetime render backend handle. Coordinates and indices here are
// tied to one template revision; they are configuration, not derived.
type GeneratorOptions struct {
	// Backend renders pages during flattening. Nil skips flattening.
	Backend    render.Backend
	FlattenDPI float64

	Layout pdf.ArbitrationLayout

	// SignatureFieldName is the form field whose former bounding box the
	// signature image covers. When the template revision lacks it, the
	// SignatureFallback coordinate is used instead.
	SignatureFieldName string
	SignatureFallback  pdf.SignaturePlacement

	// Counter placement: the sample counters are drawn as vector text at
	// fixed offsets instead of being filled as interactive fields, because
	// interactive values there do not reliably survive rasterization.
	CounterPageIndex      int // 0-based original template index
	TotalCounterOffset    Offset
	PositiveCounterOffset Offset
	CounterFieldNames     []string // excluded from the interactive fill

	// Dataset grid columns.
	AnnotationColumns []int
	PassFailColumn    int
	CalibrationColumn int

	Debug bool
}

// DefaultGeneratorOptions matches the standard inspection template.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		FlattenDPI:         pdf.DefaultFlattenDPI,
		Layout:             pdf.DefaultArbitrationLayout(),
		SignatureFieldName: "InspectorSignature",
		SignatureFallback: pdf.SignaturePlacement{
			Page: 3,
			Box:  pdf.Rect{LLX: 380, LLY: 70, URX: 540, URY: 130},
		},
		CounterPageIndex:      1,
		TotalCounterOffset:    Offset{X: 455, Y: 96},
		PositiveCounterOffset: Offset{X: 455, Y: 72},
		CounterFieldNames:     []string{"TotalSamples", "PositiveSamples"},
		AnnotationColumns:     []int{7, 8},
		PassFailColumn:        5,
		CalibrationColumn:     6,
	}
}

// Generator runs the document synthesis pipeline. One Generator serves many
// calls, concurrently if needed: each call owns its document and font
// metrics exclusively and no state crosses calls.
type Generator struct {
	opts GeneratorOptions
}

// NewGenerator constructs a generator with an explicitly injected render
// backend handle.
func NewGenerator(opts GeneratorOptions) *Generator {
	return &Generator{opts: opts}
}

// Generate runs the full pipeline: load, resolve+fill, synthesize table
// pages, arbitrate page placement, embed attachments, overlay the
// signature, stamp counters, flatten. Stages run strictly in that order;
// later stages depend on page indices committed by earlier ones. Only
// template load failure (or cancellation) is a hard error; every other
// fault degrades its stage and generation still delivers a document.
func (g *Generator) Generate(ctx context.Context, in *GenerationInput) (*GenerationResult, error) {
	rep := &GenerationReport{}

	doc, err := pdf.LoadDocument(in.Template)
	if err != nil {
		rep.fatal(StageTemplate, err.Error())
		return nil, &GenerationError{Stage: StageTemplate, Op: "load", Err: err}
	}
	rep.success(StageTemplate)
	tracker := pdf.NewPageIndexTracker(doc.PageCount())
	metrics := pdf.NewFontMetrics()

	if err := g.checkCtx(ctx); err != nil {
		return nil, err
	}
	g.fillStage(doc, in, rep, metrics)

	if err := g.checkCtx(ctx); err != nil {
		return nil, err
	}
	tablePDF, tableCount := g.synthesizeStage(in, rep, metrics)

	if err := g.checkCtx(ctx); err != nil {
		return nil, err
	}
	g.arbitrateStage(doc, tracker, tablePDF, tableCount, in, rep)

	if err := g.checkCtx(ctx); err != nil {
		return nil, err
	}
	g.attachmentStage(doc, in, rep)
	g.signatureStage(doc, tracker, in, rep)
	g.counterStage(doc, tracker, in, rep)

	if err := g.checkCtx(ctx); err != nil {
		return nil, err
	}
	g.flattenStage(ctx, doc, rep)

	out := doc.Bytes()
	if len(out) == 0 {
		return nil, &GenerationError{Stage: StageFlatten, Op: "finalize", Err: errors.New("no document bytes produced")}
	}

	address := ""
	if in.Dataset != nil {
		address = in.Dataset.Address
	}
	return &GenerationResult{
		PDF:      out,
		Filename: SuggestedFilename(address),
		Report:   rep,
	}, nil
}

func (g *Generator) checkCtx(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &GenerationError{Stage: StageTemplate, Op: "cancelled", Err: err}
	}
	return nil
}

// fillStage resolves every mapping and writes the values into the form.
func (g *Generator) fillStage(doc *pdf.Document, in *GenerationInput, rep *GenerationReport, metrics *pdf.FontMetrics) {
	filler, err := pdf.NewFormFiller(doc, metrics, g.opts.Debug)
	if err != nil {
		rep.degraded(StageFill, fmt.Sprintf("field catalog unavailable: %v", err))
		return
	}

	resolver := NewResolver(in.ReportType, g.opts.Debug)
	excluded := make(map[string]bool, len(g.opts.CounterFieldNames))
	for _, n := range g.opts.CounterFieldNames {
		excluded[n] = true
	}

	var missing []string
	set := func(field, value string) {
		if value == "" || excluded[field] {
			return
		}
		if err := filler.SetField(field, value); err != nil {
			var nf *pdf.FieldNotFoundError
			if errors.As(err, &nf) {
				log.Printf("warning: %v", err)
				missing = append(missing, field)
				return
			}
			log.Printf("warning: field %q: %v", field, err)
		}
	}

	for _, m := range in.Mappings {
		value := resolver.Resolve(m, in)
		if value == "" {
			continue
		}
		um, isUser := m.(UserInputMapping)
		switch {
		case isUser && len(um.DateGroups) > 0:
			// The date fans out into month/day/year triples; all nine
			// targets fill together or not at all.
			for field, part := range ExpandDateGroups(value, um.DateGroups) {
				set(field, part)
			}
		case isUser && um.OverflowField != "":
			head, tail, split := SplitLongText(value)
			set(m.FieldID(), head)
			if split {
				set(um.OverflowField, tail)
			}
		default:
			set(m.FieldID(), value)
		}
	}

	if err := filler.Apply(); err != nil {
		rep.degraded(StageFill, fmt.Sprintf("form fill failed: %v", err))
		return
	}
	if len(missing) > 0 {
		rep.degraded(StageFill, "fields not in template: "+strings.Join(missing, ", "))
		return
	}
	rep.success(StageFill)
}

// synthesizeStage renders the dataset grid into standalone table pages.
func (g *Generator) synthesizeStage(in *GenerationInput, rep *GenerationReport, metrics *pdf.FontMetrics) ([]byte, int) {
	if in.Dataset == nil || len(in.Dataset.Grid) == 0 {
		rep.degraded(StageSynthesize, "no dataset grid")
		return nil, 0
	}
	synth := pdf.NewTableSynthesizer(metrics, g.opts.Debug)
	data := &pdf.TableData{
		Grid:              in.Dataset.Grid,
		HeaderRow:         in.Dataset.HeaderRow,
		AnnotationColumns: g.opts.AnnotationColumns,
		PassFailColumn:    g.opts.PassFailColumn,
		CalibrationColumn: g.opts.CalibrationColumn,
	}
	tablePDF, count, err := synth.Render(data)
	if err != nil {
		rep.degraded(StageSynthesize, err.Error())
		return nil, 0
	}
	rep.success(StageSynthesize)
	return tablePDF, count
}

// arbitrateStage places the table pages and applies the branch-specific
// page moves.
func (g *Generator) arbitrateStage(doc *pdf.Document, tracker *pdf.PageIndexTracker,
	tablePDF []byte, tableCount int, in *GenerationInput, rep *GenerationReport,
) {
	if tableCount == 0 || in.Dataset == nil {
		rep.degraded(StageArbitrate, "no table pages to place")
		return
	}
	warnings, err := pdf.Arbitrate(doc, tracker, g.opts.Layout, tablePDF, tableCount, in.Dataset.Positive)
	if err != nil {
		rep.degraded(StageArbitrate, err.Error())
		return
	}
	if len(warnings) > 0 {
		for _, w := range warnings {
			log.Printf("warning: %s", w)
		}
		rep.degraded(StageArbitrate, strings.Join(warnings, "; "))
		return
	}
	rep.success(StageArbitrate)
}

// attachmentStage appends certificates and licenses; signatures are handled
// by the overlay stage.
func (g *Generator) attachmentStage(doc *pdf.Document, in *GenerationInput, rep *GenerationReport) {
	embedder := pdf.NewEmbedder(doc, g.opts.Debug)
	var failed []string
	embedded := 0
	for _, att := range in.Attachments {
		if att.Role == RoleSignature {
			continue
		}
		if err := embedder.Embed(att.FileName, att.MIMEType, att.Bytes); err != nil {
			log.Printf("warning: %v", err)
			rep.Missing(att.FileName)
			failed = append(failed, att.FileName)
			continue
		}
		embedded++
	}
	if g.opts.Debug {
		log.Printf("embedded %d attachment(s)", embedded)
	}
	if len(failed) > 0 {
		rep.degraded(StageAttachments, "skipped: "+strings.Join(failed, ", "))
		return
	}
	rep.success(StageAttachments)
}

// signatureStage overlays the inspector signature at the configured spot.
func (g *Generator) signatureStage(doc *pdf.Document, tracker *pdf.PageIndexTracker,
	in *GenerationInput, rep *GenerationReport,
) {
	var sig *AttachmentDocument
	for i := range in.Attachments {
		if in.Attachments[i].Role == RoleSignature {
			sig = &in.Attachments[i]
			break
		}
	}
	if sig == nil || len(sig.Bytes) == 0 {
		rep.Missing("signature")
		rep.degraded(StageSignature, "no signature attachment")
		return
	}

	placement, err := g.signaturePlacement(doc, tracker)
	if err != nil {
		rep.Missing("signature")
		rep.degraded(StageSignature, err.Error())
		return
	}
	if err := doc.StampSignature(sig.Bytes, placement); err != nil {
		log.Printf("warning: %v", err)
		rep.Missing("signature")
		rep.degraded(StageSignature, err.Error())
		return
	}
	rep.success(StageSignature)
}

// signaturePlacement locates the overlay: the signature field's former
// bounding box when the template has one, otherwise the configured
// secondary coordinate. Pages recorded against the original template are
// resolved through the tracker.
func (g *Generator) signaturePlacement(doc *pdf.Document, tracker *pdf.PageIndexTracker) (pdf.SignaturePlacement, error) {
	placement := g.opts.SignatureFallback
	if catalog, err := doc.Fields(); err == nil {
		if info, ok := catalog.Lookup(g.opts.SignatureFieldName); ok && info.Bounds != nil && info.Page > 0 {
			// The catalog was rebuilt on the mutated document, so the
			// widget's page number is already current.
			return pdf.SignaturePlacement{Page: info.Page, Box: *info.Bounds}, nil
		}
	}
	cur, err := tracker.Resolve(placement.Page - 1)
	if err != nil {
		return pdf.SignaturePlacement{}, err
	}
	placement.Page = cur + 1
	return placement, nil
}

// counterStage draws the sample counters as fixed-offset vector text.
func (g *Generator) counterStage(doc *pdf.Document, tracker *pdf.PageIndexTracker,
	in *GenerationInput, rep *GenerationReport,
) {
	if in.Dataset == nil {
		rep.degraded(StageCounters, "no dataset")
		return
	}
	cur, err := tracker.Resolve(g.opts.CounterPageIndex)
	if err != nil {
		log.Printf("warning: %v", err)
		rep.degraded(StageCounters, err.Error())
		return
	}
	stamps := []pdf.CounterStamp{
		{
			Page: cur + 1,
			Text: strconv.Itoa(in.Dataset.TotalCount),
			X:    g.opts.TotalCounterOffset.X,
			Y:    g.opts.TotalCounterOffset.Y,
		},
		{
			Page: cur + 1,
			Text: strconv.Itoa(in.Dataset.PositiveCount),
			X:    g.opts.PositiveCounterOffset.X,
			Y:    g.opts.PositiveCounterOffset.Y,
		},
	}
	if err := doc.StampCounters(stamps); err != nil {
		rep.degraded(StageCounters, err.Error())
		return
	}
	rep.success(StageCounters)
}

// flattenStage rasterizes the assembled document. Backend absence or any
// render fault skips the stage; the interactive document still ships.
func (g *Generator) flattenStage(ctx context.Context, doc *pdf.Document, rep *GenerationReport) {
	flattener := pdf.NewFlattener(g.opts.Backend, g.opts.FlattenDPI, g.opts.Debug)
	if err := flattener.Flatten(ctx, doc); err != nil {
		if errors.Is(err, render.ErrNoBackend) {
			rep.degraded(StageFlatten, "render backend unavailable, document left interactive")
			return
		}
		log.Printf("warning: flatten failed: %v", err)
		rep.degraded(StageFlatten, err.Error())
		return
	}
	rep.success(StageFlatten)
}
