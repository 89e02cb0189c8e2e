package equity

import (
	"fmt"

	"trd-cea-lab/internal/draws"
)

// DefaultEpsilons is the inequality-aversion grid used when none is
// configured.
var DefaultEpsilons = []float64{0, 0.5, 1, 2}

// Row is one (strategy, epsilon) line of an equity table.
type Row struct {
	Strategy string
	Result
}

// StrategyTable computes equity summaries of every strategy's effect
// distribution across the epsilon grid. Rows are ordered by strategy as
// in m, then by epsilon.
func StrategyTable(m *draws.Matrix, epsilons, weights []float64) ([]Row, error) {
	if len(epsilons) == 0 {
		epsilons = DefaultEpsilons
	}
	rows := make([]Row, 0, len(m.Strategies)*len(epsilons))
	for i, s := range m.Strategies {
		for _, eps := range epsilons {
			r, err := Compute(m.Effect[i], weights, eps)
			if err != nil {
				return nil, fmt.Errorf("strategy %s epsilon %v: %w", s, eps, err)
			}
			rows = append(rows, Row{Strategy: s, Result: r})
		}
	}
	return rows, nil
}
