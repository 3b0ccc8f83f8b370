package engine

import (
	"math"
	"sort"

	"github.com/quantserve/valuation-engine/pkg/models"
)

// normalCDF returns the standard normal cumulative distribution at x
func normalCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normalPDF returns the standard normal density at x
func normalPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

// meanStd returns the mean and population standard deviation of xs
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

// percentile returns the p-th percentile (0..100) of sorted xs using linear
// interpolation between closest ranks
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// summarize computes distribution statistics for xs at the given percentile
// labels, e.g. {"5th": 5, "50th": 50}
func summarize(xs []float64, percentiles map[string]float64) models.DistributionStats {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	mean, std := meanStd(xs)
	stats := models.DistributionStats{
		Mean:        mean,
		Std:         std,
		Percentiles: make(map[string]float64, len(percentiles)),
	}
	if len(sorted) > 0 {
		stats.Min = sorted[0]
		stats.Max = sorted[len(sorted)-1]
	}
	for label, p := range percentiles {
		stats.Percentiles[label] = percentile(sorted, p)
	}
	return stats
}
