package decision

import (
	"fmt"
	"math"
)

// roundTo8 rounds grid values to 8 decimal places.
func roundTo8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// tolerance is the relative tolerance used for ties and grid endpoints.
func tolerance(scale float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(scale))
}

// maxGridPoints bounds the number of stepped values LambdaGrid visits.
const maxGridPoints = 1_000_000

// LambdaGrid builds the willingness-to-pay grid min, min+step, ... with
// max included exactly once. A stepped value within tolerance of max is
// replaced by max; otherwise max is appended. Values are rounded to 8
// decimal places and a value that rounds onto its predecessor is dropped,
// so the grid is strictly increasing.
func LambdaGrid(min, max, step float64) ([]float64, error) {
	for _, v := range []float64{min, max, step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite bound %v", ErrInvalidGrid, v)
		}
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step %v must be positive", ErrInvalidGrid, step)
	}
	if max < min {
		return nil, fmt.Errorf("%w: max %v below min %v", ErrInvalidGrid, max, min)
	}
	if (max-min)/step > maxGridPoints {
		return nil, fmt.Errorf("%w: step %v yields more than %d points", ErrInvalidGrid, step, maxGridPoints)
	}

	tol := tolerance(max)
	var grid []float64
	for i := 0; ; i++ {
		v := roundTo8(min + float64(i)*step)
		if v >= max-tol {
			break
		}
		if n := len(grid); n > 0 && v <= grid[n-1] {
			continue
		}
		grid = append(grid, v)
	}
	return append(grid, max), nil
}
