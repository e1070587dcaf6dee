// Package render abstracts the page rasterization backend used by document
// flattening. Rendering is delegated to an external tool (poppler's
// pdftoppm or mupdf's mutool) detected at construction; when neither is
// installed flattening is skipped and generation proceeds with the
// interactive document.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// ErrNoBackend means no rasterization tool is available on this host.
var ErrNoBackend = errors.New("no render backend available")

// Backend rasterizes single PDF pages to PNG. Implementations must be safe
// for concurrent use: flattening renders pages in parallel.
type Backend interface {
	Name() string
	// RenderPage renders the 1-based page at the given resolution and
	// returns PNG bytes.
	RenderPage(ctx context.Context, pdf []byte, page int, dpi float64) ([]byte, error)
}

// Detect probes the host for a usable backend, preferring pdftoppm. A nil
// Backend with ErrNoBackend means flattening cannot run here.
func Detect() (Backend, error) {
	if bin, err := exec.LookPath("pdftoppm"); err == nil {
		return &popplerBackend{bin: bin}, nil
	}
	if bin, err := exec.LookPath("mutool"); err == nil {
		return &mutoolBackend{bin: bin}, nil
	}
	return nil, ErrNoBackend
}

// popplerBackend shells out to pdftoppm.
type popplerBackend struct {
	bin string
}

func (b *popplerBackend) Name() string { return "pdftoppm" }

func (b *popplerBackend) RenderPage(ctx context.Context, pdf []byte, page int, dpi float64) ([]byte, error) {
	tmp, cleanup, err := tempPDF(pdf)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	p := strconv.Itoa(page)
	cmd := exec.CommandContext(ctx, b.bin,
		"-png",
		"-r", strconv.FormatFloat(dpi, 'f', -1, 64),
		"-f", p, "-l", p,
		tmp,
	)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w (%s)", page, err, errBuf.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("pdftoppm produced no output for page %d", page)
	}
	return out.Bytes(), nil
}

// mutoolBackend shells out to mupdf's mutool draw.
type mutoolBackend struct {
	bin string
}

func (b *mutoolBackend) Name() string { return "mutool" }

func (b *mutoolBackend) RenderPage(ctx context.Context, pdf []byte, page int, dpi float64) ([]byte, error) {
	tmp, cleanup, err := tempPDF(pdf)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, b.bin,
		"draw",
		"-F", "png",
		"-r", strconv.FormatFloat(dpi, 'f', -1, 64),
		"-o", "-",
		tmp,
		strconv.Itoa(page),
	)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("mutool failed on page %d: %w (%s)", page, err, errBuf.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("mutool produced no output for page %d", page)
	}
	return out.Bytes(), nil
}

// tempPDF writes the document to a temp file for tools that cannot read
// stdin reliably.
func tempPDF(data []byte) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "report-engine-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp PDF: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to write temp PDF: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, fmt.Errorf("failed to close temp PDF: %w", err)
	}
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}
