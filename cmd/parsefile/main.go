package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"receipt-processor/constants"
	"receipt-processor/internal/extract"
	"receipt-processor/internal/ocr"
	"receipt-processor/internal/parser"
	"receipt-processor/internal/pdf"
	"receipt-processor/internal/pipeline"
)

// parsefile runs the extraction and parsing pipeline on a single local file
// and prints the parsed fields as JSON. No database involved.
func main() {
	fs := ff.NewFlagSet("parsefile")
	var (
		vocabPath = fs.StringLong("vocabulary", "", "path to a vocabulary JSON file (built-in defaults if empty)")
		tessBin   = fs.StringLong("tesseract", "tesseract", "tesseract binary name or path")
		tessLang  = fs.StringLong("tesseract-lang", "eng", "tesseract language")
		timeout   = fs.DurationLong("timeout", 2*time.Minute, "overall processing timeout")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("PARSEFILE")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	args := fs.GetArgs()
	if len(args) != 1 {
		logger.Error("usage", "cmd", "parsefile [flags] <receipt-file>")
		os.Exit(2)
	}
	path := args[0]
	ext := constants.NormalizeExt(filepath.Ext(path))
	if !constants.IsAllowedExt(ext) {
		logger.Error("unsupported file type", "path", path, "ext", ext)
		os.Exit(2)
	}

	vocab := parser.DefaultVocabulary()
	if *vocabPath != "" {
		var err error
		vocab, err = parser.LoadVocabularyFile(*vocabPath)
		if err != nil {
			logger.Error("failed to load vocabulary", "path", *vocabPath, "error", err)
			os.Exit(1)
		}
	}

	tess := ocr.NewTesseract(ocr.Config{Tesseract: *tessBin, Lang: *tessLang}, logger)
	pipe := pipeline.New(extract.NewExtractor(tess, pdf.Opener{}, logger), parser.New(vocab, logger), logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := pipe.Process(ctx, path, ext)
	if err != nil {
		logger.Error("processing failed", "path", path, "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
}
