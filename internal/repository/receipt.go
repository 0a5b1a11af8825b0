package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"receipt-processor/internal/common"
	"receipt-processor/internal/entity"
)

const dateLayout = "2006-01-02"

// ListOptions controls pagination and ordering for List.
type ListOptions struct {
	Skip      int
	Limit     int    // <=0 means the default of 100
	SortBy    string // "date" | "vendor" | "amount"
	SortOrder string // "asc" | "desc"
}

// SearchQuery filters receipts. Zero values mean "no constraint".
type SearchQuery struct {
	Vendor    string // case-sensitive substring match
	StartDate *time.Time
	EndDate   *time.Time
}

type ReceiptRepository interface {
	// Upsert stores the receipt keyed by its file path: a receipt for an
	// already-stored path replaces that row's fields.
	Upsert(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error)
	GetByFilePath(ctx context.Context, filePath string) (*entity.Receipt, error)
	List(ctx context.Context, opts ListOptions) ([]*entity.Receipt, error)
	Search(ctx context.Context, q SearchQuery) ([]*entity.Receipt, error)
	// Amounts returns every stored amount, for summary statistics.
	Amounts(ctx context.Context) ([]float64, error)
	VendorSpend(ctx context.Context) ([]entity.VendorSpend, error)
	MonthlySpend(ctx context.Context) ([]entity.MonthlySpend, error)
}

type receiptRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewReceiptRepository(db *sql.DB, logger *slog.Logger) ReceiptRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &receiptRepository{db: db, logger: logger}
}

var sortColumns = map[string]string{
	"date":   "tx_date",
	"vendor": "vendor",
	"amount": "amount",
}

const receiptColumns = "id, vendor, tx_date, amount, category, sub_categories, file_path, created_at, updated_at"

func (r *receiptRepository) Upsert(ctx context.Context, rec *entity.Receipt) (*entity.Receipt, error) {
	id := rec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	subs, err := json.Marshal(rec.SubCategories)
	if err != nil {
		return nil, fmt.Errorf("marshal sub_categories: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO receipts (id, vendor, tx_date, amount, category, sub_categories, file_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (file_path) DO UPDATE SET
			vendor = excluded.vendor,
			tx_date = excluded.tx_date,
			amount = excluded.amount,
			category = excluded.category,
			sub_categories = excluded.sub_categories,
			updated_at = excluded.updated_at`,
		id.String(), rec.Vendor, rec.TxDate.Format(dateLayout), rec.Amount,
		rec.Category, string(subs), rec.FilePath, now, now,
	)
	if err != nil {
		r.logger.Error("failed to upsert receipt", "file_path", rec.FilePath, "error", err)
		return nil, common.NewAppError("DATABASE_ERROR", "upsert receipt", err)
	}

	stored, err := r.GetByFilePath(ctx, rec.FilePath)
	if err != nil {
		return nil, err
	}
	r.logger.Info("receipt upserted", "id", stored.ID, "vendor", stored.Vendor, "file_path", stored.FilePath)
	return stored, nil
}

func (r *receiptRepository) GetByFilePath(ctx context.Context, filePath string) (*entity.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+receiptColumns+" FROM receipts WHERE file_path = $1", filePath)
	rec, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("receipt %s: %w", filePath, common.ErrNotFound)
	}
	return rec, err
}

func (r *receiptRepository) List(ctx context.Context, opts ListOptions) ([]*entity.Receipt, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	order := ""
	if col, ok := sortColumns[opts.SortBy]; ok {
		dir := "ASC"
		if opts.SortOrder == "desc" {
			dir = "DESC"
		}
		order = fmt.Sprintf(" ORDER BY %s %s", col, dir)
	}

	query := "SELECT " + receiptColumns + " FROM receipts" + order + " LIMIT $1 OFFSET $2"
	rows, err := r.db.QueryContext(ctx, query, limit, opts.Skip)
	if err != nil {
		r.logger.Error("failed to list receipts", "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectReceipts(rows)
}

func (r *receiptRepository) Search(ctx context.Context, q SearchQuery) ([]*entity.Receipt, error) {
	query := "SELECT " + receiptColumns + " FROM receipts WHERE 1=1"
	var args []any
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if q.Vendor != "" {
		query += " AND vendor LIKE " + arg("%"+q.Vendor+"%")
	}
	if q.StartDate != nil {
		query += " AND tx_date >= " + arg(q.StartDate.Format(dateLayout))
	}
	if q.EndDate != nil {
		query += " AND tx_date <= " + arg(q.EndDate.Format(dateLayout))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to search receipts", "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectReceipts(rows)
}

func (r *receiptRepository) Amounts(ctx context.Context) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT amount FROM receipts")
	if err != nil {
		r.logger.Error("failed to query amounts", "error", err)
		return nil, err
	}
	defer rows.Close()

	var amounts []float64
	for rows.Next() {
		var a float64
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		amounts = append(amounts, a)
	}
	return amounts, rows.Err()
}

func (r *receiptRepository) VendorSpend(ctx context.Context) ([]entity.VendorSpend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT vendor, SUM(amount) AS total_spend
		FROM receipts
		GROUP BY vendor
		ORDER BY total_spend DESC`)
	if err != nil {
		r.logger.Error("failed to query vendor spend", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.VendorSpend
	for rows.Next() {
		var v entity.VendorSpend
		if err := rows.Scan(&v.Vendor, &v.TotalSpend); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MonthlySpend groups on the YYYY-MM prefix of the ISO tx_date, which
// keeps the query portable across sqlite and postgres.
func (r *receiptRepository) MonthlySpend(ctx context.Context) ([]entity.MonthlySpend, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(tx_date, 1, 7) AS month, SUM(amount) AS total_spend
		FROM receipts
		GROUP BY month
		ORDER BY month`)
	if err != nil {
		r.logger.Error("failed to query monthly spend", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []entity.MonthlySpend
	for rows.Next() {
		var m entity.MonthlySpend
		if err := rows.Scan(&m.Month, &m.TotalSpend); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (*entity.Receipt, error) {
	var (
		rec                            entity.Receipt
		id, txDate, subs, created, upd string
	)
	err := row.Scan(&id, &rec.Vendor, &txDate, &rec.Amount, &rec.Category, &subs, &rec.FilePath, &created, &upd)
	if err != nil {
		return nil, err
	}
	if rec.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("receipt id: %w", err)
	}
	if rec.TxDate, err = time.Parse(dateLayout, txDate); err != nil {
		return nil, fmt.Errorf("receipt tx_date: %w", err)
	}
	if err = json.Unmarshal([]byte(subs), &rec.SubCategories); err != nil {
		return nil, fmt.Errorf("receipt sub_categories: %w", err)
	}
	if rec.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("receipt created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339, upd); err != nil {
		return nil, fmt.Errorf("receipt updated_at: %w", err)
	}
	return &rec, nil
}

func collectReceipts(rows *sql.Rows) ([]*entity.Receipt, error) {
	var out []*entity.Receipt
	for rows.Next() {
		rec, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
