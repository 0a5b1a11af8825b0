package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"receipt-processor/internal/entity"
	"receipt-processor/internal/stats"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		amounts []float64
		want    entity.SpendStats
	}{
		{
			name:    "empty input is all zeros",
			amounts: nil,
			want:    entity.SpendStats{},
		},
		{
			name:    "single amount",
			amounts: []float64{42.50},
			want:    entity.SpendStats{TotalSpend: 42.50, MeanSpend: 42.50, MedianSpend: 42.50, ModeSpend: 42.50},
		},
		{
			name:    "odd count with repeated value",
			amounts: []float64{10, 20, 20, 30, 40},
			want:    entity.SpendStats{TotalSpend: 120, MeanSpend: 24, MedianSpend: 20, ModeSpend: 20},
		},
		{
			name:    "even count takes middle average",
			amounts: []float64{10, 20, 30, 40},
			want:    entity.SpendStats{TotalSpend: 100, MeanSpend: 25, MedianSpend: 25, ModeSpend: 0},
		},
		{
			name:    "tied frequencies have no unique mode",
			amounts: []float64{5, 5, 9, 9},
			want:    entity.SpendStats{TotalSpend: 28, MeanSpend: 7, MedianSpend: 7, ModeSpend: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.Summarize(tt.amounts)
			assert.InDelta(t, tt.want.TotalSpend, got.TotalSpend, 1e-9)
			assert.InDelta(t, tt.want.MeanSpend, got.MeanSpend, 1e-9)
			assert.InDelta(t, tt.want.MedianSpend, got.MedianSpend, 1e-9)
			assert.InDelta(t, tt.want.ModeSpend, got.ModeSpend, 1e-9)
		})
	}
}
