// Package extract turns receipt files into plain text. Dispatch is by the
// declared file kind; OCR and PDF decoding are injected capabilities.
// Extraction never fails hard: every internal error is logged and degrades
// to whatever text was accumulated, possibly none. The caller decides what
// an empty blob means.
package extract

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"receipt-processor/constants"
)

// scannedTextThreshold separates PDFs with real embedded text from
// effectively-scanned ones: below this many trimmed characters the pages
// are additionally rasterized and OCRed.
const scannedTextThreshold = 100

type Extractor struct {
	ocr    ImageOCR
	pdfs   PDFOpener
	logger *slog.Logger
}

func NewExtractor(ocr ImageOCR, pdfs PDFOpener, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ocr: ocr, pdfs: pdfs, logger: logger}
}

// Extract produces the text blob for the file at path, dispatching on the
// declared extension. Unrecognized extensions yield empty text.
func (e *Extractor) Extract(ctx context.Context, path, ext string) string {
	switch constants.MapExtToFormat(ext) {
	case constants.IMAGE:
		return e.extractImage(ctx, path, ext)
	case constants.PDF:
		return e.extractPDF(ctx, path)
	case constants.TEXT:
		return e.extractText(path)
	default:
		e.logger.Warn("unsupported file extension", "path", path, "ext", ext)
		return ""
	}
}

func (e *Extractor) extractImage(ctx context.Context, path, ext string) string {
	if constants.IsHEICExt(ext) {
		converted, cleanup, err := convertHEICToPNG(path)
		if err != nil {
			e.logger.Error("heic conversion failed", "path", path, "error", err)
			return ""
		}
		defer cleanup()
		path = converted
	}

	txt, err := e.ocr.Recognize(ctx, path)
	if err != nil {
		e.logger.Error("image ocr failed", "path", path, "error", err)
		return ""
	}
	return txt
}

// extractPDF concatenates the embedded text of every page. When that text
// is too short the document is treated as scanned and each page is
// rasterized and OCRed, the OCR text appended.
func (e *Extractor) extractPDF(ctx context.Context, path string) string {
	doc, err := e.pdfs.Open(path)
	if err != nil {
		e.logger.Error("pdf open failed", "path", path, "error", err)
		return ""
	}
	defer doc.Close()

	var b strings.Builder
	for i := 0; i < doc.NumPages(); i++ {
		txt, err := doc.PageText(i)
		if err != nil {
			e.logger.Error("pdf text extraction failed", "path", path, "page", i, "error", err)
			return b.String()
		}
		b.WriteString(txt)
	}

	if len(strings.TrimSpace(b.String())) >= scannedTextThreshold {
		return b.String()
	}

	e.logger.Info("pdf has little embedded text, running ocr fallback", "path", path, "chars", b.Len())
	tmpDir, err := os.MkdirTemp("", "rp-pdf-*")
	if err != nil {
		e.logger.Error("pdf ocr temp dir failed", "path", path, "error", err)
		return b.String()
	}
	defer os.RemoveAll(tmpDir)

	for i := 0; i < doc.NumPages(); i++ {
		img, err := doc.RenderPNG(i, tmpDir)
		if err != nil {
			e.logger.Error("pdf page render failed", "path", path, "page", i, "error", err)
			return b.String()
		}
		txt, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			e.logger.Error("pdf page ocr failed", "path", path, "page", i, "error", err)
			return b.String()
		}
		b.WriteString(txt)
	}
	return b.String()
}

func (e *Extractor) extractText(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		e.logger.Error("text file read failed", "path", path, "error", err)
		return ""
	}
	return string(data)
}
