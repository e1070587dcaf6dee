package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	xdraw "golang.org/x/image/draw"
)

// Signature sizing: the bitmap is scaled to fit the target box, then
// enlarged; the opaque backing extends past the box to occlude template
// artwork printed under the signature area.
const (
	signatureEnlargeFactor = 1.25
	signatureBackingMargin = 6.0
)

// SignaturePlacement locates a signature overlay on a page. The box is
// normally a form field's former bounding box; report variants without such
// a field use a configured secondary coordinate.
type SignaturePlacement struct {
	Page int // 1-based
	Box  Rect
}

// StampSignature draws a signature image over existing page content. An
// opaque white backing rectangle goes down first, then the signature scaled
// to fit the box and enlarged, both centered on the box center.
func (d *Document) StampSignature(imgData []byte, placement SignaturePlacement) error {
	src, _, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		return fmt.Errorf("failed to decode signature image: %w", err)
	}

	boxW, boxH := placement.Box.Width(), placement.Box.Height()
	if boxW <= 0 || boxH <= 0 {
		return fmt.Errorf("signature placement box is empty")
	}

	srcW := float64(src.Bounds().Dx())
	srcH := float64(src.Bounds().Dy())
	scale := math.Min(boxW/srcW, boxH/srcH)
	sigW := srcW * scale * signatureEnlargeFactor
	sigH := srcH * scale * signatureEnlargeFactor

	cx := placement.Box.LLX + boxW/2
	cy := placement.Box.LLY + boxH/2

	backing := whitePNG(int(math.Ceil(boxW+2*signatureBackingMargin)), int(math.Ceil(boxH+2*signatureBackingMargin)))
	if err := d.stampImage(placement.Page, backing,
		cx-boxW/2-signatureBackingMargin, cy-boxH/2-signatureBackingMargin); err != nil {
		return fmt.Errorf("failed to stamp signature backing: %w", err)
	}

	sigPNG, err := resizePNG(src, int(math.Round(sigW)), int(math.Round(sigH)))
	if err != nil {
		return err
	}
	if err := d.stampImage(placement.Page, sigPNG, cx-sigW/2, cy-sigH/2); err != nil {
		return fmt.Errorf("failed to stamp signature image: %w", err)
	}
	return nil
}

// stampImage stamps PNG bytes at their natural size (1px = 1pt) with the
// lower-left corner at the given page coordinates.
func (d *Document) stampImage(page int, pngData []byte, x, y float64) error {
	desc := fmt.Sprintf("pos:bl, off:%.1f %.1f, scale:1 abs, rot:0", x, y)
	wm, err := api.ImageWatermarkForReader(bytes.NewReader(pngData), desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to build image stamp: %w", err)
	}
	return d.applyStamp(page, wm)
}

// CounterStamp is one fixed-offset vector text drawn directly onto a page.
// The sample counter values are deliberately kept out of the interactive
// form: their field values do not reliably survive rasterization.
type CounterStamp struct {
	Page     int // 1-based
	Text     string
	X, Y     float64 // lower-left offset in points
	FontSize float64
}

// StampCounters draws each counter text onto its page. Runs after filling,
// arbitration and embedding so the offsets refer to final page positions.
func (d *Document) StampCounters(stamps []CounterStamp) error {
	for _, s := range stamps {
		if s.Text == "" {
			continue
		}
		size := s.FontSize
		if size <= 0 {
			size = defaultFieldFontSize
		}
		desc := fmt.Sprintf("fontname:Helvetica, points:%.0f, pos:bl, off:%.1f %.1f, scale:1 abs, rot:0, fillc:#000000, op:1",
			size, s.X, s.Y)
		wm, err := api.TextWatermark(s.Text, desc, true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("failed to build counter stamp: %w", err)
		}
		if err := d.applyStamp(s.Page, wm); err != nil {
			return err
		}
	}
	return nil
}

// applyStamp runs one watermark pass against a single page.
func (d *Document) applyStamp(page int, wm *model.Watermark) error {
	if page < 1 || page > d.PageCount() {
		return &PageIndexOutOfRangeError{Original: page - 1, Resolved: page - 1, Pages: d.PageCount()}
	}
	var out bytes.Buffer
	m := map[int]*model.Watermark{page: wm}
	if err := api.AddWatermarksMap(bytes.NewReader(d.data), &out, m, d.conf); err != nil {
		return fmt.Errorf("failed to apply stamp to page %d: %w", page, err)
	}
	return d.replace(out.Bytes())
}

// whitePNG builds an opaque white rectangle of the given pixel size.
func whitePNG(w, h int) []byte {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory RGBA cannot realistically fail; if it ever
		// does, the empty stamp is rejected downstream and the signature
		// stage degrades.
		return []byte{}
	}
	return buf.Bytes()
}

// resizePNG rescales the image to exactly w x h pixels and encodes PNG.
func resizePNG(src image.Image, w, h int) ([]byte, error) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode resized signature: %w", err)
	}
	return buf.Bytes(), nil
}
