package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"receipt-processor/constants"
	"receipt-processor/internal/entity"
	"receipt-processor/internal/pipeline"
	"receipt-processor/internal/repository"
)

// receiptJSON is the wire shape of a stored receipt. Dates go out as
// plain YYYY-MM-DD strings.
type receiptJSON struct {
	ID            string             `json:"id"`
	Vendor        string             `json:"vendor"`
	Date          string             `json:"date"`
	Amount        float64            `json:"amount"`
	Category      string             `json:"category"`
	SubCategories map[string]float64 `json:"sub_categories"`
	FilePath      string             `json:"file_path"`
}

type uploadResponse struct {
	receiptJSON
	Undetected []string `json:"undetected,omitempty"`
}

func toReceiptJSON(r *entity.Receipt) receiptJSON {
	subs := r.SubCategories
	if subs == nil {
		subs = map[string]float64{}
	}
	return receiptJSON{
		ID:            r.ID.String(),
		Vendor:        r.Vendor,
		Date:          r.TxDate.Format("2006-01-02"),
		Amount:        r.Amount,
		Category:      r.Category,
		SubCategories: subs,
		FilePath:      r.FilePath,
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	if !constants.IsAllowedExt(ext) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("file type %q not supported", ext))
		return
	}

	dst := filepath.Join(s.cfg.UploadsDir, filepath.Base(header.Filename))
	if err := saveUpload(dst, file); err != nil {
		s.logger.Error("failed to save upload", "path", dst, "error", err)
		writeError(w, http.StatusInternalServerError, "could not save file")
		return
	}

	res, err := s.pipeline.Process(r.Context(), dst, ext)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoText) {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("parsing error: %v", err))
			return
		}
		s.logger.Error("pipeline failed", "path", dst, "error", err)
		writeError(w, http.StatusInternalServerError, "an unexpected error occurred")
		return
	}

	stored, err := s.receipts.Upsert(r.Context(), &entity.Receipt{
		Vendor:        res.Record.Vendor,
		TxDate:        res.Record.TxDate,
		Amount:        res.Record.Amount,
		Category:      res.Record.Category,
		SubCategories: res.Record.SubCategories,
		FilePath:      dst,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not store receipt")
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		receiptJSON: toReceiptJSON(stored),
		Undetected:  res.Undetected,
	})
}

func saveUpload(dst string, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, src)
	return err
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := repository.ListOptions{
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if opts.SortBy != "" {
		if _, ok := map[string]bool{"date": true, "vendor": true, "amount": true}[opts.SortBy]; !ok {
			writeError(w, http.StatusBadRequest, "sort_by must be one of: date, vendor, amount")
			return
		}
	}
	if opts.SortOrder != "" && opts.SortOrder != "asc" && opts.SortOrder != "desc" {
		writeError(w, http.StatusBadRequest, "sort_order must be asc or desc")
		return
	}
	var err error
	if opts.Skip, err = intParam(q.Get("skip"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "skip must be an integer")
		return
	}
	if opts.Limit, err = intParam(q.Get("limit"), 100); err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	recs, err := s.receipts.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not list receipts")
		return
	}
	writeReceipts(w, recs)
}

func (s *Server) handleSearchReceipts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := repository.SearchQuery{Vendor: q.Get("vendor")}

	var err error
	if search.StartDate, err = dateParam(q.Get("start_date")); err != nil {
		writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
		return
	}
	if search.EndDate, err = dateParam(q.Get("end_date")); err != nil {
		writeError(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
		return
	}

	recs, err := s.receipts.Search(r.Context(), search)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not search receipts")
		return
	}
	writeReceipts(w, recs)
}

func writeReceipts(w http.ResponseWriter, recs []*entity.Receipt) {
	out := make([]receiptJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toReceiptJSON(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func dateParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
