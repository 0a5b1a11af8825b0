// Package ocr shells out to tesseract for image text recognition. The
// binary is invoked through a Runner so tests can stub it.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // default "eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for a uniform block of text
}

// Tesseract recognizes text in raster images via the tesseract CLI.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Tesseract{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Recognize runs OCR over the image at path and returns the decoded text.
func (t *Tesseract) Recognize(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}
