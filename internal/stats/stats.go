// Package stats computes aggregate spending statistics over stored
// receipt amounts. Grouping happens in SQL; the summary math lives here.
package stats

import (
	"sort"

	"receipt-processor/internal/entity"
)

// Summarize computes total, mean, median and mode of the amounts. An
// empty input yields all zeros. Mode is the single most frequent amount;
// when the maximum frequency is shared, there is no unique mode and 0 is
// reported.
func Summarize(amounts []float64) entity.SpendStats {
	if len(amounts) == 0 {
		return entity.SpendStats{}
	}

	var total float64
	for _, a := range amounts {
		total += a
	}

	return entity.SpendStats{
		TotalSpend:  total,
		MeanSpend:   total / float64(len(amounts)),
		MedianSpend: median(amounts),
		ModeSpend:   mode(amounts),
	}
}

func median(amounts []float64) float64 {
	sorted := make([]float64, len(amounts))
	copy(sorted, amounts)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mode(amounts []float64) float64 {
	counts := make(map[float64]int, len(amounts))
	best := 0
	for _, a := range amounts {
		counts[a]++
		if counts[a] > best {
			best = counts[a]
		}
	}

	var winner float64
	ties := 0
	for a, c := range counts {
		if c == best {
			winner = a
			ties++
		}
	}
	if ties > 1 {
		return 0
	}
	return winner
}
