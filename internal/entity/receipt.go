package entity

import (
	"time"

	"github.com/google/uuid"
)

// Receipt represents a stored receipt for data transfer between layers.
type Receipt struct {
	ID            uuid.UUID          `json:"id"`
	Vendor        string             `json:"vendor"`
	TxDate        time.Time          `json:"tx_date"`
	Amount        float64            `json:"amount"`
	Category      string             `json:"category"`
	SubCategories map[string]float64 `json:"sub_categories"`
	FilePath      string             `json:"file_path"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}
