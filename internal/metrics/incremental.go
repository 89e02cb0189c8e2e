// Package metrics computes per-strategy summaries and incremental
// cost-effectiveness against the base strategy.
package metrics

import (
	"fmt"
	"math"

	"trd-cea-lab/internal/decision"
	"trd-cea-lab/internal/draws"
)

// Dominance classifies a strategy against the base strategy.
type Dominance string

const (
	DominanceReference Dominance = "reference"
	DominanceDominant  Dominance = "dominant"  // cheaper or equal cost, at least as effective
	DominanceDominated Dominance = "dominated" // costlier or equal cost, no more effective
	DominanceNE        Dominance = "ne"        // costlier and more effective
	DominanceSW        Dominance = "sw"        // cheaper and less effective
)

// IncrementalRow compares one strategy with the base strategy.
type IncrementalRow struct {
	Strategy    string
	MeanCost    float64
	MeanEffect  float64
	DeltaCost   float64
	DeltaEffect float64
	ICER        float64 // +Inf/-Inf when DeltaEffect is zero
	Dominance   Dominance

	Cost   Summary
	Effect Summary
}

// ICER returns dC/dE. A zero effect difference yields +Inf for a cost
// increase, -Inf for a cost saving and 0 when both differences are zero.
func ICER(deltaCost, deltaEffect float64) float64 {
	if deltaEffect == 0 {
		switch {
		case deltaCost > 0:
			return math.Inf(1)
		case deltaCost < 0:
			return math.Inf(-1)
		default:
			return 0
		}
	}
	return deltaCost / deltaEffect
}

// Classify returns the dominance label of a (dC, dE) pair.
func Classify(deltaCost, deltaEffect float64) Dominance {
	switch {
	case deltaCost <= 0 && deltaEffect >= 0 && (deltaCost < 0 || deltaEffect > 0):
		return DominanceDominant
	case deltaCost > 0 && deltaEffect > 0:
		return DominanceNE
	case deltaCost < 0 && deltaEffect < 0:
		return DominanceSW
	default:
		return DominanceDominated
	}
}

// Incremental computes mean cost and effect per strategy and the
// incremental results against base. Rows follow the strategy order of m.
func Incremental(m *draws.Matrix, base string) ([]IncrementalRow, error) {
	b := m.Index(base)
	if b < 0 {
		return nil, &decision.MissingStrategiesError{Perspective: m.Perspective, Names: []string{base}}
	}
	if m.NumDraws() == 0 {
		return nil, fmt.Errorf("no draws under %s", m.Perspective)
	}

	baseCost := computeSummary(m.Cost[b])
	baseEffect := computeSummary(m.Effect[b])

	rows := make([]IncrementalRow, len(m.Strategies))
	for i, s := range m.Strategies {
		cost := computeSummary(m.Cost[i])
		effect := computeSummary(m.Effect[i])
		row := IncrementalRow{
			Strategy:   s,
			MeanCost:   cost.Mean,
			MeanEffect: effect.Mean,
			Cost:       cost,
			Effect:     effect,
		}
		if i == b {
			row.Dominance = DominanceReference
		} else {
			row.DeltaCost = cost.Mean - baseCost.Mean
			row.DeltaEffect = effect.Mean - baseEffect.Mean
			row.ICER = ICER(row.DeltaCost, row.DeltaEffect)
			row.Dominance = Classify(row.DeltaCost, row.DeltaEffect)
		}
		rows[i] = row
	}
	return rows, nil
}
