// Package stats reduces scored records into accuracy statistics: percentiles,
// failure rates, per-group breakdowns and directional bias.
//
// Every function here is a pure reduction over its input; none retain state.
package stats

import (
	"math"
	"sort"
)

// Percentile calculates the p-th percentile (0-100) using linear
// interpolation between closest ranks, matching spreadsheet PERCENTILE.INC.
// Empty input returns 0.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileSorted(sorted, p)
}

// percentileSorted expects ascending, non-empty input
func percentileSorted(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}

	index := (p / 100.0) * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
