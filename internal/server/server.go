// Package server exposes the receipt pipeline and stored records over
// HTTP: upload, listing, search, aggregate statistics and XLSX export.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"receipt-processor/internal/export"
	"receipt-processor/internal/parser"
	"receipt-processor/internal/repository"
)

// Processor runs the extraction pipeline for one uploaded file.
type Processor interface {
	Process(ctx context.Context, path, ext string) (parser.Result, error)
}

// Pinger reports backing-store health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Config struct {
	UploadsDir string // where uploaded files are stored; default "./uploads"
}

type Server struct {
	cfg      Config
	router   *mux.Router
	pipeline Processor
	receipts repository.ReceiptRepository
	exporter *export.Service
	db       Pinger
	logger   *slog.Logger
}

func New(cfg Config, p Processor, receipts repository.ReceiptRepository, exporter *export.Service, db Pinger, logger *slog.Logger) *Server {
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "./uploads"
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		router:   mux.NewRouter(),
		pipeline: p,
		receipts: receipts,
		exporter: exporter,
		db:       db,
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(RequestID, Logging(s.logger), Recovery(s.logger))

	s.router.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	s.router.HandleFunc("/receipts", s.handleListReceipts).Methods(http.MethodGet)
	s.router.HandleFunc("/receipts/search", s.handleSearchReceipts).Methods(http.MethodGet)
	s.router.HandleFunc("/stats/summary", s.handleStatsSummary).Methods(http.MethodGet)
	s.router.HandleFunc("/stats/vendor_spend", s.handleVendorSpend).Methods(http.MethodGet)
	s.router.HandleFunc("/stats/monthly_spend", s.handleMonthlySpend).Methods(http.MethodGet)
	s.router.HandleFunc("/export/receipts.xlsx", s.handleExport).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
