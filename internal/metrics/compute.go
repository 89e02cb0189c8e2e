package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes the distribution of one outcome across draws.
type Summary struct {
	N      int
	Mean   float64
	Stddev float64
	P025   float64
	P50    float64
	P975   float64
	Min    float64
	Max    float64
}

// computeSummary calculates distribution statistics of values.
// The input is not modified.
func computeSummary(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{
		N:    n,
		Mean: stat.Mean(values, nil),
		P025: computePercentile(sorted, 0.025),
		P50:  computePercentile(sorted, 0.50),
		P975: computePercentile(sorted, 0.975),
		Min:  sorted[0],
		Max:  sorted[n-1],
	}
	if n > 1 {
		s.Stddev = stat.StdDev(values, nil)
	}
	return s
}

// computePercentile uses linear interpolation.
// sorted must be pre-sorted ASC.
// p is percentile (0.025 = 2.5th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
