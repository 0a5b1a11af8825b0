package extract

import "context"

// ImageOCR recognizes text in a single raster image file.
type ImageOCR interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// PDFDocument is one open PDF: selectable text per page, plus page
// rasterization for the scanned-document OCR fallback.
type PDFDocument interface {
	NumPages() int
	PageText(page int) (string, error)
	// RenderPNG rasterizes the page into dir and returns the image path.
	RenderPNG(page int, dir string) (string, error)
	Close() error
}

// PDFOpener opens a PDF file for decoding.
type PDFOpener interface {
	Open(path string) (PDFDocument, error)
}
