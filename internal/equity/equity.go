// Package equity computes inequality-adjusted summaries of outcome
// distributions: equally distributed equivalent, Atkinson index and
// isoelastic social welfare.
package equity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Floor is the smallest outcome value entering a power or logarithm.
const Floor = 1e-10

// Equity errors
var (
	ErrEmptySample    = errors.New("empty outcome sample")
	ErrInvalidWeights = errors.New("invalid population weights")
	ErrInvalidEpsilon = errors.New("inequality aversion must be finite and non-negative")
)

// Result holds the three mutually consistent summaries for one epsilon.
type Result struct {
	Epsilon float64
	N       int
	Mean    float64
	EDE     float64
	Welfare float64

	// Atkinson is only meaningful when AtkinsonDefined is true; it is
	// undefined for samples with a non-positive mean.
	Atkinson        float64
	AtkinsonDefined bool
}

// Compute evaluates EDE, Atkinson and welfare in one pass with the same
// weights and epsilon. Nil weights are uniform; weights are normalized
// to sum to one.
func Compute(x, weights []float64, eps float64) (Result, error) {
	n := len(x)
	if n == 0 {
		return Result{}, ErrEmptySample
	}
	if eps < 0 || math.IsNaN(eps) || math.IsInf(eps, 0) {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidEpsilon, eps)
	}

	w, err := normalize(weights, n)
	if err != nil {
		return Result{}, err
	}

	res := Result{Epsilon: eps, N: n, Mean: stat.Mean(x, w)}

	if floats.Min(x) == floats.Max(x) && x[0] > Floor {
		// Equal outcomes: no inequality, exactly.
		res.EDE = x[0]
		res.Welfare = utility(x[0], eps)
		res.Atkinson = 0
		res.AtkinsonDefined = true
		return res, nil
	}

	for i, v := range x {
		res.Welfare += w[i] * utility(math.Max(v, Floor), eps)
	}
	res.EDE = inverseUtility(res.Welfare, eps)

	if res.Mean > 0 {
		a := 1 - res.EDE/res.Mean
		res.Atkinson = math.Min(1, math.Max(0, a))
		res.AtkinsonDefined = true
	}
	return res, nil
}

func isLog(eps float64) bool {
	return math.Abs(eps-1) < 1e-12
}

// utility is the isoelastic utility x^(1-eps)/(1-eps), or ln x at eps=1.
func utility(x, eps float64) float64 {
	if isLog(eps) {
		return math.Log(x)
	}
	return math.Pow(x, 1-eps) / (1 - eps)
}

// inverseUtility maps welfare back to the equally distributed equivalent.
func inverseUtility(w, eps float64) float64 {
	if isLog(eps) {
		return math.Exp(w)
	}
	base := (1 - eps) * w
	if base <= 0 {
		return 0
	}
	return math.Pow(base, 1/(1-eps))
}

func normalize(weights []float64, n int) ([]float64, error) {
	w := make([]float64, n)
	if weights == nil {
		for i := range w {
			w[i] = 1 / float64(n)
		}
		return w, nil
	}
	if len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d outcomes", ErrInvalidWeights, len(weights), n)
	}
	for _, v := range weights {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: weight %v", ErrInvalidWeights, v)
		}
	}
	total := floats.Sum(weights)
	if total <= 0 {
		return nil, fmt.Errorf("%w: weights sum to %v", ErrInvalidWeights, total)
	}
	floats.ScaleTo(w, 1/total, weights)
	return w, nil
}
