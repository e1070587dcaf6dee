package pdf

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	ledongthuc "github.com/ledongthuc/pdf"
)

// AttachmentFormat is the sniffed payload format of an attachment.
type AttachmentFormat string

const (
	FormatPDF     AttachmentFormat = "pdf"
	FormatPNG     AttachmentFormat = "png"
	FormatJPEG    AttachmentFormat = "jpeg"
	FormatUnknown AttachmentFormat = "unknown"
)

// AttachmentInvalidError reports an attachment whose bytes cannot be
// embedded in any supported form. The attachment is skipped and reported to
// the caller as a missing item; generation continues.
type AttachmentInvalidError struct {
	Name   string
	Reason string
}

func (e *AttachmentInvalidError) Error() string {
	return fmt.Sprintf("attachment %q cannot be embedded: %s", e.Name, e.Reason)
}

// SniffFormat determines an attachment's payload format from its declared
// MIME type, then its file extension, then magic bytes.
func SniffFormat(mimeType, fileName string, data []byte) AttachmentFormat {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "application/pdf":
		return FormatPDF
	case "image/png":
		return FormatPNG
	case "image/jpeg", "image/jpg":
		return FormatJPEG
	}
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return FormatPDF
	case ".png":
		return FormatPNG
	case ".jpg", ".jpeg":
		return FormatJPEG
	}
	return sniffMagic(data)
}

func sniffMagic(data []byte) AttachmentFormat {
	switch {
	case len(data) >= 5 && bytes.HasPrefix(data, []byte("%PDF-")):
		return FormatPDF
	case len(data) >= 4 && bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}):
		return FormatPNG
	case len(data) >= 2 && bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return FormatJPEG
	}
	return FormatUnknown
}

// Embedder appends attachment documents and images as pages.
type Embedder struct {
	doc       *Document
	debugMode bool
}

// NewEmbedder constructs an embedder over the given document.
func NewEmbedder(doc *Document, debugMode bool) *Embedder {
	return &Embedder{doc: doc, debugMode: debugMode}
}

// Embed appends one attachment to the end of the document. PDFs contribute
// all of their pages; images get one centered, scaled-to-fit page each.
// Ambiguous payloads that fail PDF parsing are retried as images before
// being rejected.
func (e *Embedder) Embed(fileName, mimeType string, data []byte) error {
	if len(data) == 0 {
		return &AttachmentInvalidError{Name: fileName, Reason: "zero bytes"}
	}

	format := SniffFormat(mimeType, fileName, data)
	switch format {
	case FormatPDF:
		if err := e.embedPDF(data); err == nil {
			return nil
		} else if e.debugMode {
			log.Printf("attachment %q failed PDF parse, retrying as image: %v", fileName, err)
		}
		// Ambiguous input: retry down the image path.
		return e.embedImage(fileName, data)
	case FormatPNG, FormatJPEG:
		return e.embedImage(fileName, data)
	default:
		// Last resort: some uploads arrive with no type information at
		// all. Try PDF first, then image.
		if err := e.embedPDF(data); err == nil {
			return nil
		}
		return e.embedImage(fileName, data)
	}
}

// embedPDF probes the payload with a lightweight structural read before
// handing it to the merge, so corrupt bytes are rejected without disturbing
// the assembled document.
func (e *Embedder) embedPDF(data []byte) error {
	probe, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("attachment failed PDF probe: %w", err)
	}
	if probe.NumPage() < 1 {
		return fmt.Errorf("attachment PDF has no pages")
	}
	return e.doc.AppendDocument(data)
}

// embedImage renders the image onto one new full page: centered, scaled to
// fit the printable area, never upscaled.
func (e *Embedder) embedImage(fileName string, data []byte) error {
	cfg, kind, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &AttachmentInvalidError{Name: fileName, Reason: fmt.Sprintf("unsupported image bytes: %v", err)}
	}

	page, err := imagePage(data, kind, float64(cfg.Width), float64(cfg.Height))
	if err != nil {
		return &AttachmentInvalidError{Name: fileName, Reason: err.Error()}
	}
	return e.doc.AppendDocument(page)
}

// imagePage builds a standalone one-page PDF holding the image.
func imagePage(data []byte, kind string, imgW, imgH float64) ([]byte, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	doc.AddPage()

	pageW, pageH := doc.GetPageSize()
	availW := pageW - 2*tablePageMargin
	availH := pageH - 2*tablePageMargin

	// Image pixels map to points at 72dpi; fit without ever enlarging.
	scale := 1.0
	if imgW > availW {
		scale = availW / imgW
	}
	if s := availH / imgH; s < scale {
		scale = s
	}
	w := imgW * scale
	h := imgH * scale
	x := (pageW - w) / 2
	y := (pageH - h) / 2

	imageType := strings.ToUpper(kind)
	if imageType == "JPG" {
		imageType = "JPEG"
	}
	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	doc.RegisterImageOptionsReader("attachment", opts, bytes.NewReader(data))
	doc.ImageOptions("attachment", x, y, w, h, false, opts, 0, "")

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to build image page: %w", err)
	}
	return buf.Bytes(), nil
}
