package draws

import (
	"slices"

	"trd-cea-lab/internal/domain"
)

// Matrix is the aligned view of one perspective of a Table.
// Cost and Effect are indexed [strategy][draw] following Strategies and
// Draws.
type Matrix struct {
	Perspective domain.Perspective
	Strategies  []string
	Draws       []int
	Cost        [][]float64
	Effect      [][]float64
}

// NumDraws returns the number of aligned draws.
func (m *Matrix) NumDraws() int {
	return len(m.Draws)
}

// Index returns the column of a strategy, or -1.
func (m *Matrix) Index(strategy string) int {
	return slices.Index(m.Strategies, strategy)
}

// Select returns a matrix restricted to the given strategies, in the
// given order, plus the names that are not present.
func (m *Matrix) Select(strategies []string) (*Matrix, []string) {
	out := &Matrix{
		Perspective: m.Perspective,
		Draws:       slices.Clone(m.Draws),
	}
	var missing []string
	for _, s := range strategies {
		i := m.Index(s)
		if i < 0 {
			missing = append(missing, s)
			continue
		}
		out.Strategies = append(out.Strategies, s)
		out.Cost = append(out.Cost, slices.Clone(m.Cost[i]))
		out.Effect = append(out.Effect, slices.Clone(m.Effect[i]))
	}
	return out, missing
}
