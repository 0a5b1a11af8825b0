// Package pipeline chains text extraction and field parsing for one
// receipt file. It is the sole place the core signals a hard failure.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"receipt-processor/internal/parser"
)

// ErrNoText is the fatal parsing error: the file yielded no text at all,
// so nothing downstream can be inferred. Callers should treat it as bad
// input, not a server fault.
var ErrNoText = errors.New("could not extract text from the file")

// TextExtractor is stage 1: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path, ext string) string
}

// FieldParser is stage 2: text -> structured record.
type FieldParser interface {
	Parse(text string) parser.Result
}

type Pipeline struct {
	extractor TextExtractor
	parser    FieldParser
	logger    *slog.Logger
}

func New(extractor TextExtractor, fieldParser FieldParser, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{extractor: extractor, parser: fieldParser, logger: logger}
}

// Process extracts text from the file at path and parses it into a
// structured record. Finer-grained extraction and parsing problems are
// absorbed into default field values; only a file with no text at all
// fails, with an error matching ErrNoText.
func (p *Pipeline) Process(ctx context.Context, path, ext string) (parser.Result, error) {
	text := p.extractor.Extract(ctx, path, ext)
	if text == "" {
		p.logger.Warn("no text extracted", "path", path, "ext", ext)
		return parser.Result{}, fmt.Errorf("%s: %w", path, ErrNoText)
	}

	res := p.parser.Parse(text)
	p.logger.Info("receipt parsed",
		"path", path,
		"vendor", res.Record.Vendor,
		"category", res.Record.Category,
		"amount", res.Record.Amount,
		"undetected", res.Undetected,
	)
	return res, nil
}
