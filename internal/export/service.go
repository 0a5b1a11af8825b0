package export

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"receipt-processor/internal/entity"
	"receipt-processor/internal/repository"
)

// Service is a tiny façade over the receipt repository that produces XLSX
// bytes for dashboard downloads.
type Service struct {
	receipts repository.ReceiptRepository
	logger   *slog.Logger
}

func NewService(receipts repository.ReceiptRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{receipts: receipts, logger: logger}
}

// ExportReceiptsXLSX returns an XLSX workbook (as bytes) of every stored
// receipt.
func (s *Service) ExportReceiptsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.receipts.Search(ctx, repository.SearchQuery{})
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Receipts"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Transaction Date",
		"Vendor",
		"Category",
		"Amount",
		"Category Subtotals",
		"File Path",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for row, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.TxDate.Format("2006-01-02"))
		write(2, r.Vendor)
		write(3, r.Category)
		write(4, r.Amount)
		write(5, formatSubCategories(r))
		write(6, r.FilePath)
	}

	_ = f.SetColWidth(sheet, "A", "A", 14)
	_ = f.SetColWidth(sheet, "B", "C", 20)
	_ = f.SetColWidth(sheet, "D", "D", 12)
	_ = f.SetColWidth(sheet, "E", "E", 40)
	_ = f.SetColWidth(sheet, "F", "F", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func formatSubCategories(r *entity.Receipt) string {
	if len(r.SubCategories) == 0 {
		return ""
	}
	names := make([]string, 0, len(r.SubCategories))
	for name := range r.SubCategories {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %.2f", name, r.SubCategories[name]))
	}
	return strings.Join(parts, "; ")
}
