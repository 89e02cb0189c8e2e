package decision

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/draws"
)

// Options select the strategies and focal strategy of an analysis.
type Options struct {
	// Strategies to compare, in order. Nil compares every strategy in the
	// matrix.
	Strategies []string
	Focal      Focal
}

// NMBResult is the (lambda, strategy, draw) net monetary benefit cube and
// its expectations.
type NMBResult struct {
	Perspective domain.Perspective
	Lambdas     []float64
	Strategies  []string
	Draws       []int
	Focal       Focal

	Values   [][][]float64 // [lambda][strategy][draw]
	Expected [][]float64   // [lambda][strategy]
	Optimal  [][]int       // [lambda][draw], index into Strategies

	MeanCost   []float64 // [strategy]
	MeanEffect []float64 // [strategy]
}

// OptimalName returns the tie-break optimal strategy for a lambda index
// and draw index.
func (r *NMBResult) OptimalName(l, d int) string {
	return r.Strategies[r.Optimal[l][d]]
}

// ComputeNMB evaluates NMB = lambda*effect - cost for every threshold,
// strategy and draw of m.
func ComputeNMB(m *draws.Matrix, lambdas []float64, opts Options) (*NMBResult, error) {
	if len(lambdas) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidGrid)
	}

	sel := m
	if opts.Strategies != nil {
		var missing []string
		sel, missing = m.Select(opts.Strategies)
		if len(missing) > 0 {
			return nil, &MissingStrategiesError{Perspective: m.Perspective, Names: missing}
		}
	}
	if len(sel.Strategies) < 2 {
		return nil, fmt.Errorf("%w: got %d under %s", ErrNoStrategies, len(sel.Strategies), m.Perspective)
	}

	ns, nd := len(sel.Strategies), sel.NumDraws()
	res := &NMBResult{
		Perspective: m.Perspective,
		Lambdas:     append([]float64(nil), lambdas...),
		Strategies:  append([]string(nil), sel.Strategies...),
		Draws:       append([]int(nil), sel.Draws...),
		Focal:       opts.Focal,
		Values:      make([][][]float64, len(lambdas)),
		Expected:    make([][]float64, len(lambdas)),
		Optimal:     make([][]int, len(lambdas)),
		MeanCost:    make([]float64, ns),
		MeanEffect:  make([]float64, ns),
	}
	for s := 0; s < ns; s++ {
		res.MeanCost[s] = stat.Mean(sel.Cost[s], nil)
		res.MeanEffect[s] = stat.Mean(sel.Effect[s], nil)
	}

	column := make([]float64, ns)
	for l, lambda := range lambdas {
		res.Values[l] = make([][]float64, ns)
		res.Expected[l] = make([]float64, ns)
		for s := 0; s < ns; s++ {
			v := make([]float64, nd)
			floats.ScaleTo(v, lambda, sel.Effect[s])
			floats.Sub(v, sel.Cost[s])
			res.Values[l][s] = v
			res.Expected[l][s] = stat.Mean(v, nil)
		}

		res.Optimal[l] = make([]int, nd)
		for d := 0; d < nd; d++ {
			for s := 0; s < ns; s++ {
				column[s] = res.Values[l][s][d]
			}
			res.Optimal[l][d] = ArgmaxWithTiebreak(column, res.Strategies, opts.Focal)
		}
	}
	return res, nil
}
