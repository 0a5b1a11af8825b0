// Package pdf decodes PDF documents with MuPDF via go-fitz.
package pdf

import (
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"

	"receipt-processor/internal/extract"
)

// Opener opens PDF files with go-fitz.
type Opener struct{}

func (Opener) Open(path string) (extract.PDFDocument, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	return &document{doc: doc}, nil
}

type document struct {
	doc *fitz.Document
}

func (d *document) NumPages() int {
	return d.doc.NumPage()
}

func (d *document) PageText(page int) (string, error) {
	txt, err := d.doc.Text(page)
	if err != nil {
		return "", fmt.Errorf("pdf text page %d: %w", page, err)
	}
	return txt, nil
}

func (d *document) RenderPNG(page int, dir string) (string, error) {
	img, err := d.doc.Image(page)
	if err != nil {
		return "", fmt.Errorf("rendering pdf page %d: %w", page, err)
	}

	out := filepath.Join(dir, fmt.Sprintf("page-%d.png", page+1))
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encoding page %d: %w", page, err)
	}
	return out, nil
}

func (d *document) Close() error {
	return d.doc.Close()
}
