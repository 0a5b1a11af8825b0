package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"receipt-processor/internal/common"
)

type Config struct {
	DSN          string
	MaxOpenConns int
	DialTimeout  time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
	id             TEXT PRIMARY KEY,
	vendor         TEXT NOT NULL,
	tx_date        TEXT NOT NULL,
	amount         DOUBLE PRECISION NOT NULL,
	category       TEXT NOT NULL,
	sub_categories TEXT NOT NULL,
	file_path      TEXT NOT NULL UNIQUE,
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_receipts_vendor ON receipts (vendor);
CREATE INDEX IF NOT EXISTS idx_receipts_tx_date ON receipts (tx_date);
`

// Open connects to the database named by the DSN and ensures the schema
// exists. postgres:// DSNs use the pgx driver; anything else is treated as
// a sqlite file path (or :memory:).
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	driver := "sqlite"
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		driver = "pgx"
	}
	logger.Info("connecting to database", "driver", driver)

	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, common.WrapError(err, "open database")
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "ping database")
	}

	// one statement at a time: pgx's extended protocol rejects batches
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, common.WrapError(err, "create schema")
		}
	}

	logger.Info("database ready", "driver", driver)
	return db, nil
}
