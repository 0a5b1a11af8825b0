package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"receipt-processor/internal/export"
	"receipt-processor/internal/extract"
	"receipt-processor/internal/ocr"
	"receipt-processor/internal/parser"
	"receipt-processor/internal/pdf"
	"receipt-processor/internal/pipeline"
	"receipt-processor/internal/repository"
	"receipt-processor/internal/server"
)

func main() {
	fs := ff.NewFlagSet("receiptsd")
	var (
		addr        = fs.StringLong("addr", ":8080", "HTTP listen address")
		dsn         = fs.StringLong("db", "receipts.db", "database DSN: a sqlite file path or a postgres:// URL")
		uploadsDir  = fs.StringLong("uploads", "./uploads", "directory where uploaded receipt files are stored")
		vocabPath   = fs.StringLong("vocabulary", "", "path to a vocabulary JSON file (built-in defaults if empty)")
		tessBin     = fs.StringLong("tesseract", "tesseract", "tesseract binary name or path")
		tessLang    = fs.StringLong("tesseract-lang", "eng", "tesseract language")
		tessData    = fs.StringLong("tessdata-dir", "", "tesseract tessdata directory")
		tessPSM     = fs.IntLong("tesseract-psm", 0, "tesseract page segmentation mode (0 = tesseract default)")
		maxConns    = fs.IntLong("db-max-conns", 10, "maximum open database connections")
		dialTimeout = fs.DurationLong("db-dial-timeout", 5*time.Second, "database connect timeout")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("RECEIPTSD")); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{
		DSN:          *dsn,
		MaxOpenConns: *maxConns,
		DialTimeout:  *dialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to open database", "dsn", *dsn, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	vocab := parser.DefaultVocabulary()
	if *vocabPath != "" {
		vocab, err = parser.LoadVocabularyFile(*vocabPath)
		if err != nil {
			logger.Error("failed to load vocabulary", "path", *vocabPath, "error", err)
			os.Exit(1)
		}
	}

	tess := ocr.NewTesseract(ocr.Config{
		Tesseract:   *tessBin,
		Lang:        *tessLang,
		TessdataDir: *tessData,
		PSM:         *tessPSM,
	}, logger)

	extractor := extract.NewExtractor(tess, pdf.Opener{}, logger)
	pipe := pipeline.New(extractor, parser.New(vocab, logger), logger)

	receipts := repository.NewReceiptRepository(db, logger)
	exporter := export.NewService(receipts, logger)

	srv := server.New(server.Config{UploadsDir: *uploadsDir}, pipe, receipts, exporter, db, logger)

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
