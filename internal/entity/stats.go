package entity

// SpendStats summarizes all stored receipt amounts.
type SpendStats struct {
	TotalSpend  float64 `json:"total_spend"`
	MeanSpend   float64 `json:"mean_spend"`
	MedianSpend float64 `json:"median_spend"`
	ModeSpend   float64 `json:"mode_spend"`
}

// VendorSpend is the total amount spent at one vendor.
type VendorSpend struct {
	Vendor     string  `json:"vendor"`
	TotalSpend float64 `json:"total_spend"`
}

// MonthlySpend is the total amount spent in one YYYY-MM month.
type MonthlySpend struct {
	Month      string  `json:"month"`
	TotalSpend float64 `json:"total_spend"`
}
