package sensitivity

import (
	"fmt"
	"math"
	"slices"

	"trd-cea-lab/internal/decision"
	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/draws"
)

// Dataset is the complete-case PRCC input after aligning parameter
// samples with the outcome on draw id.
type Dataset struct {
	Draws   []int
	Names   []string
	Params  [][]float64 // [parameter][row]
	Outcome []float64

	Unmatched  int // draws present in only one of the two inputs
	Incomplete int // matched draws dropped for a missing or non-finite value
}

// Assemble intersects parameter samples and outcomes on draw id and drops
// every draw with a missing or non-finite value.
func Assemble(samples []domain.ParameterSample, outcome map[int]float64) *Dataset {
	byDraw := map[int]map[string]float64{}
	nameSet := map[string]struct{}{}
	for _, s := range samples {
		if byDraw[s.Draw] == nil {
			byDraw[s.Draw] = map[string]float64{}
		}
		byDraw[s.Draw][s.Name] = s.Value
		nameSet[s.Name] = struct{}{}
	}

	names := make([]string, 0, len(nameSet))
	for n := range nameSet {
		names = append(names, n)
	}
	slices.Sort(names)

	ds := &Dataset{Names: names, Params: make([][]float64, len(names))}

	all := map[int]struct{}{}
	for d := range byDraw {
		all[d] = struct{}{}
	}
	for d := range outcome {
		all[d] = struct{}{}
	}
	ids := make([]int, 0, len(all))
	for d := range all {
		ids = append(ids, d)
	}
	slices.Sort(ids)

	for _, d := range ids {
		values, hasParams := byDraw[d]
		y, hasOutcome := outcome[d]
		if !hasParams || !hasOutcome {
			ds.Unmatched++
			continue
		}
		if !finite(y) || !complete(values, names) {
			ds.Incomplete++
			continue
		}
		ds.Draws = append(ds.Draws, d)
		ds.Outcome = append(ds.Outcome, y)
		for i, n := range names {
			ds.Params[i] = append(ds.Params[i], values[n])
		}
	}
	return ds
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func complete(values map[string]float64, names []string) bool {
	for _, n := range names {
		v, ok := values[n]
		if !ok || !finite(v) {
			return false
		}
	}
	return true
}

// IncrementalNetBenefit returns INB(d) = lambda*(E_c - E_b) - (C_c - C_b)
// per draw for comparator c against base b.
func IncrementalNetBenefit(m *draws.Matrix, base, comparator string, lambda float64) (map[int]float64, error) {
	b, c := m.Index(base), m.Index(comparator)
	var missing []string
	if b < 0 {
		missing = append(missing, base)
	}
	if c < 0 {
		missing = append(missing, comparator)
	}
	if len(missing) > 0 {
		return nil, &decision.MissingStrategiesError{Perspective: m.Perspective, Names: missing}
	}

	out := make(map[int]float64, len(m.Draws))
	for i, d := range m.Draws {
		dE := m.Effect[c][i] - m.Effect[b][i]
		dC := m.Cost[c][i] - m.Cost[b][i]
		out[d] = lambda*dE - dC
	}
	return out, nil
}

// Result is a PRCC table with the data it was computed from.
type Result struct {
	Base         string
	Comparator   string
	Lambda       float64
	Coefficients []Coefficient
	N            int
	Unmatched    int
	Incomplete   int
}

// Analyze runs PRCC of comparator against base at lambda.
func Analyze(m *draws.Matrix, samples []domain.ParameterSample, base, comparator string, lambda float64) (*Result, error) {
	inb, err := IncrementalNetBenefit(m, base, comparator, lambda)
	if err != nil {
		return nil, err
	}
	ds := Assemble(samples, inb)

	coefs, err := PRCC(ds.Names, ds.Params, ds.Outcome)
	if err != nil {
		return nil, fmt.Errorf("prcc %s vs %s: %w", comparator, base, err)
	}
	return &Result{
		Base:         base,
		Comparator:   comparator,
		Lambda:       lambda,
		Coefficients: coefs,
		N:            len(ds.Outcome),
		Unmatched:    ds.Unmatched,
		Incomplete:   ds.Incomplete,
	}, nil
}
