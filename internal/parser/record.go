package parser

import "time"

// Sentinel values used when no heuristic matched.
const (
	VendorUnknown         = "Unknown"
	CategoryMixed         = "Mixed"
	CategoryUncategorized = "Uncategorized"
)

// Field names reported in Result.Undetected.
const (
	FieldVendor   = "vendor"
	FieldDate     = "date"
	FieldAmount   = "amount"
	FieldCategory = "category"
)

// Record is the structured outcome of parsing a receipt text blob.
// Amount is never negative and TxDate is never zero; undetectable
// fields carry the sentinel defaults instead of being absent.
type Record struct {
	Vendor        string             `json:"vendor"`
	TxDate        time.Time          `json:"tx_date"`
	Amount        float64            `json:"amount"`
	Category      string             `json:"category"`
	SubCategories map[string]float64 `json:"sub_categories,omitempty"`
}

// Result pairs the best-effort record with the names of fields that
// fell back to their defaults, so callers can tell a genuinely-zero
// amount from an undetected one.
type Result struct {
	Record     Record   `json:"record"`
	Undetected []string `json:"undetected,omitempty"`
}

// Detected reports whether the named field was found in the text.
func (r Result) Detected(field string) bool {
	for _, f := range r.Undetected {
		if f == field {
			return false
		}
	}
	return true
}
