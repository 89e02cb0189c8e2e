// Package sensitivity ranks uncertain parameters by their partial rank
// correlation with incremental net benefit.
package sensitivity

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sensitivity errors
var (
	ErrInsufficientDraws = errors.New("not enough complete draws for PRCC")
	ErrNoParameters      = errors.New("no parameters to analyse")
	ErrShapeMismatch     = errors.New("parameter and outcome lengths differ")
)

// Coefficient is the PRCC of one parameter.
type Coefficient struct {
	Parameter string
	PRCC      float64
	PValue    float64
	Rank      int
}

// PRCC computes partial rank correlation coefficients of every parameter
// column with outcome, controlling for all other parameters. Results are
// sorted by descending |PRCC| with ties broken by name.
func PRCC(names []string, params [][]float64, outcome []float64) ([]Coefficient, error) {
	k := len(names)
	if k == 0 {
		return nil, ErrNoParameters
	}
	if len(params) != k {
		return nil, fmt.Errorf("%w: %d names, %d columns", ErrShapeMismatch, k, len(params))
	}
	n := len(outcome)
	for i, col := range params {
		if len(col) != n {
			return nil, fmt.Errorf("%w: %s has %d rows, outcome has %d", ErrShapeMismatch, names[i], len(col), n)
		}
	}

	ranked := make([][]float64, k)
	informative := 0
	for i, col := range params {
		ranked[i] = Ranks(col)
		if !constant(ranked[i]) {
			informative++
		}
	}
	if n < informative+3 {
		return nil, fmt.Errorf("%w: %d rows for %d parameters", ErrInsufficientDraws, n, informative)
	}
	y := Ranks(outcome)

	out := make([]Coefficient, k)
	for j := range params {
		out[j] = Coefficient{Parameter: names[j], PValue: 1}
		if constant(ranked[j]) {
			continue
		}

		var controls [][]float64
		for i := range params {
			if i != j && !constant(ranked[i]) {
				controls = append(controls, ranked[i])
			}
		}

		rx, err := residuals(ranked[j], controls)
		if err != nil {
			return nil, err
		}
		ry, err := residuals(y, controls)
		if err != nil {
			return nil, err
		}

		r := correlation(rx, ry)
		out[j].PRCC = r
		out[j].PValue = pValue(r, n-2-len(controls))
	}

	sort.SliceStable(out, func(a, b int) bool {
		ma, mb := math.Abs(out[a].PRCC), math.Abs(out[b].PRCC)
		if ma != mb {
			return ma > mb
		}
		return out[a].Parameter < out[b].Parameter
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func constant(x []float64) bool {
	return len(x) == 0 || floats.Min(x) == floats.Max(x)
}

// residuals regresses y on an intercept and the control columns by
// projecting onto the left singular vectors of the design matrix.
func residuals(y []float64, controls [][]float64) ([]float64, error) {
	n := len(y)
	p := len(controls) + 1

	design := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for c, col := range controls {
			design.Set(i, c+1, col[i])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return nil, errors.New("svd factorization failed")
	}
	values := svd.Values(nil)
	var u mat.Dense
	svd.UTo(&u)

	tol := float64(max(n, p)) * values[0] * 2.220446049250313e-16
	res := append([]float64(nil), y...)
	basis := make([]float64, n)
	for c, s := range values {
		if s <= tol {
			continue
		}
		mat.Col(basis, c, &u)
		floats.AddScaled(res, -floats.Dot(basis, y), basis)
	}
	return res, nil
}

// correlation is Pearson's r with zero returned for degenerate residuals.
func correlation(x, y []float64) float64 {
	if degenerate(x) || degenerate(y) {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// degenerate reports residuals indistinguishable from zero variance.
func degenerate(x []float64) bool {
	return stat.StdDev(x, nil) <= 1e-9*math.Max(1, float64(len(x)))
}

// pValue is the two-sided Student-t p-value of r with df degrees of
// freedom.
func pValue(r float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	t := r * math.Sqrt(float64(df)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return 2 * dist.Survival(math.Abs(t))
}
