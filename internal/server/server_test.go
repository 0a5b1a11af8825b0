package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-processor/internal/entity"
	"receipt-processor/internal/export"
	"receipt-processor/internal/extract"
	"receipt-processor/internal/parser"
	"receipt-processor/internal/pipeline"
	"receipt-processor/internal/repository"
	"receipt-processor/internal/server"
)

type noOCR struct{}

func (noOCR) Recognize(context.Context, string) (string, error) {
	return "", errors.New("ocr not available in tests")
}

type noPDF struct{}

func (noPDF) Open(string) (extract.PDFDocument, error) {
	return nil, errors.New("pdf not available in tests")
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	logger := slog.Default()

	db, err := repository.Open(context.Background(), repository.Config{
		DSN: filepath.Join(t.TempDir(), "receipts.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := repository.NewReceiptRepository(db, logger)
	pl := pipeline.New(extract.NewExtractor(noOCR{}, noPDF{}, logger), parser.New(nil, logger), logger)

	return server.New(
		server.Config{UploadsDir: t.TempDir()},
		pl, repo, export.NewService(repo, logger), db, logger,
	)
}

func upload(t *testing.T, srv http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func get(srv http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

const sampleReceipt = `TARGET STORE #42
15/03/2024
GROCERY SUBTOTAL $45.00
GRAND TOTAL $48.50
`

func TestUploadParsesAndStores(t *testing.T) {
	srv := newTestServer(t)

	rr := upload(t, srv, "receipt.txt", sampleReceipt)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var got struct {
		ID            string             `json:"id"`
		Vendor        string             `json:"vendor"`
		Date          string             `json:"date"`
		Amount        float64            `json:"amount"`
		Category      string             `json:"category"`
		SubCategories map[string]float64 `json:"sub_categories"`
		FilePath      string             `json:"file_path"`
		Undetected    []string           `json:"undetected"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Target", got.Vendor)
	assert.Equal(t, "2024-03-15", got.Date)
	assert.InDelta(t, 48.50, got.Amount, 1e-9)
	assert.Equal(t, "Groceries", got.Category)
	assert.Equal(t, map[string]float64{"Groceries": 45.00}, got.SubCategories)
	assert.Empty(t, got.Undetected)
}

func TestUploadSameFilenameUpserts(t *testing.T) {
	srv := newTestServer(t)

	first := upload(t, srv, "receipt.txt", sampleReceipt)
	require.Equal(t, http.StatusCreated, first.Code)
	second := upload(t, srv, "receipt.txt", "WALMART\nGRAND TOTAL $10.00\n")
	require.Equal(t, http.StatusCreated, second.Code)

	rr := get(srv, "/receipts")
	require.Equal(t, http.StatusOK, rr.Code)
	var receipts []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, "Walmart", receipts[0]["vendor"])
}

func TestUploadUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t)
	rr := upload(t, srv, "notes.docx", "whatever")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUploadEmptyFileIsUnprocessable(t *testing.T) {
	srv := newTestServer(t)
	rr := upload(t, srv, "blank.txt", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "parsing error")
}

func TestUploadUnreadableTextStillSucceeds(t *testing.T) {
	srv := newTestServer(t)

	rr := upload(t, srv, "smudge.txt", "illegible smudge")
	require.Equal(t, http.StatusCreated, rr.Code)

	var got struct {
		Vendor     string   `json:"vendor"`
		Category   string   `json:"category"`
		Amount     float64  `json:"amount"`
		Undetected []string `json:"undetected"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Unknown", got.Vendor)
	assert.Equal(t, "Uncategorized", got.Category)
	assert.Zero(t, got.Amount)
	assert.Len(t, got.Undetected, 4)
}

func TestUploadMissingFileField(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListValidation(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, get(srv, "/receipts?sort_by=bogus").Code)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/receipts?sort_order=sideways").Code)
	assert.Equal(t, http.StatusBadRequest, get(srv, "/receipts?limit=abc").Code)
	assert.Equal(t, http.StatusOK, get(srv, "/receipts?sort_by=amount&sort_order=desc").Code)
}

func TestSearchValidation(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, get(srv, "/receipts/search?start_date=03-15-2024").Code)
	assert.Equal(t, http.StatusOK, get(srv, "/receipts/search?vendor=Tar").Code)
}

func TestStatsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, upload(t, srv, "a.txt", "TARGET\nGRAND TOTAL $10.00\n15/01/2024").Code)
	require.Equal(t, http.StatusCreated, upload(t, srv, "b.txt", "TARGET\nGRAND TOTAL $30.00\n20/01/2024").Code)
	require.Equal(t, http.StatusCreated, upload(t, srv, "c.txt", "WALMART\nGRAND TOTAL $20.00\n05/02/2024").Code)

	var summary entity.SpendStats
	rr := get(srv, "/stats/summary")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.InDelta(t, 60, summary.TotalSpend, 1e-9)
	assert.InDelta(t, 20, summary.MeanSpend, 1e-9)
	assert.InDelta(t, 20, summary.MedianSpend, 1e-9)

	var vendors []entity.VendorSpend
	rr = get(srv, "/stats/vendor_spend")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &vendors))
	require.Len(t, vendors, 2)
	assert.Equal(t, "Target", vendors[0].Vendor)
	assert.InDelta(t, 40, vendors[0].TotalSpend, 1e-9)

	var months []entity.MonthlySpend
	rr = get(srv, "/stats/monthly_spend")
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &months))
	require.Len(t, months, 2)
	assert.Equal(t, "2024-01", months[0].Month)
	assert.InDelta(t, 40, months[0].TotalSpend, 1e-9)
}

func TestStatsEmptyDatabase(t *testing.T) {
	srv := newTestServer(t)

	rr := get(srv, "/stats/summary")
	require.Equal(t, http.StatusOK, rr.Code)
	var summary entity.SpendStats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &summary))
	assert.Zero(t, summary.TotalSpend)

	rr = get(srv, "/stats/vendor_spend")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, upload(t, srv, "a.txt", sampleReceipt).Code)

	rr := get(srv, "/export/receipts.xlsx")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rr.Header().Get("Content-Type"))
	assert.NotEmpty(t, rr.Body.Bytes())
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rr := get(srv, "/healthz")
	assert.Equal(t, http.StatusOK, rr.Code)
}
