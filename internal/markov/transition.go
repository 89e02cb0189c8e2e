package markov

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"trd-cea-lab/internal/domain"
)

// ErrInvalidTransition is returned when a row of the transition matrix
// cannot be made stochastic from the configured rates.
var ErrInvalidTransition = errors.New("invalid transition probabilities")

// rowTolerance bounds the deviation of a row sum from 1.
const rowTolerance = 1e-9

// Matrix is a transition matrix indexed [from][to] in domain.State order.
type Matrix [domain.NumStates][domain.NumStates]float64

// Occupancy is the cohort distribution over states.
type Occupancy [domain.NumStates]float64

// Sum returns the total occupancy mass.
func (o Occupancy) Sum() float64 {
	return floats.Sum(o[:])
}

// Step returns o × m.
func (o Occupancy) Step(m *Matrix) Occupancy {
	var next Occupancy
	for from := range o {
		if o[from] == 0 {
			continue
		}
		for to := range next {
			next[to] += o[from] * m[from][to]
		}
	}
	return next
}

// Rates are per-cycle transition probabilities derived from a strategy
// and jurisdiction for a given cycle length.
type Rates struct {
	Remission            float64
	PartialResponse      float64
	Relapse              float64 // per cycle, before tunnel multipliers
	AdverseEvent         float64
	RetreatmentRemission float64
	AdverseEventRecovery float64
	Death                float64

	TunnelMultipliers [4]float64
	TunnelWidths      [4]int // cycles per bucket, 0 for the terminal bucket
}

// HazardToProbability converts a constant rate over t time units into
// an event probability.
func HazardToProbability(rate, t float64) float64 {
	if rate <= 0 || t <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*t)
}

// NewRates builds per-cycle rates for a strategy in a jurisdiction.
func NewRates(s domain.Strategy, j domain.Jurisdiction, settings domain.SimulationSettings) (Rates, error) {
	if settings.CycleMonths <= 0 {
		return Rates{}, fmt.Errorf("%w: cycle length must be positive", ErrInvalidTransition)
	}
	cycle := float64(settings.CycleMonths)

	r := Rates{
		Remission:            s.Clinical.Remission,
		PartialResponse:      s.Clinical.PartialResponse,
		Relapse:              HazardToProbability(s.Clinical.RelapseHazard, cycle),
		AdverseEvent:         s.Clinical.AdverseEvent,
		RetreatmentRemission: s.Clinical.RetreatmentRemission,
		AdverseEventRecovery: s.Clinical.AdverseEventRecovery,
		Death:                HazardToProbability(j.AnnualDeathRate, cycle/12),
	}

	mult := settings.Multipliers()
	if len(mult) != len(r.TunnelMultipliers) {
		return Rates{}, fmt.Errorf("%w: need %d tunnel multipliers, got %d",
			ErrInvalidTransition, len(r.TunnelMultipliers), len(mult))
	}
	copy(r.TunnelMultipliers[:], mult)

	for k, months := range domain.TunnelWidthMonths {
		if months == 0 {
			continue
		}
		w := months / settings.CycleMonths
		if w < 1 {
			w = 1
		}
		r.TunnelWidths[k] = w
	}
	return r, nil
}

// advances reports whether tunnel bucket k hands its mass to k+1 at the
// end of cycle c.
func (r Rates) advances(k, c int) bool {
	w := r.TunnelWidths[k]
	return w > 0 && (c+1)%w == 0
}

type exit struct {
	to domain.State
	p  float64
}

// Transition builds the transition matrix for cycle c.
func Transition(r Rates, c int) (*Matrix, error) {
	var m Matrix

	set := func(from domain.State, exits []exit, stay domain.State) error {
		total := 0.0
		for _, e := range exits {
			if e.p < 0 || e.p > 1 || math.IsNaN(e.p) {
				return fmt.Errorf("%w: %s -> %s probability %g", ErrInvalidTransition, from, e.to, e.p)
			}
			m[from][e.to] += e.p
			total += e.p
		}
		rest := 1 - total
		if rest < -rowTolerance {
			return fmt.Errorf("%w: %s exits sum to %g", ErrInvalidTransition, from, total)
		}
		if rest > 0 {
			m[from][stay] += rest
		}
		return nil
	}

	err := set(domain.StateDepressed, []exit{
		{domain.StateDeath, r.Death},
		{domain.StatePostAdverseEvent, r.AdverseEvent},
		{domain.StateRemission0to3, r.Remission},
		{domain.StatePartialResponse, r.PartialResponse},
	}, domain.StateDepressed)
	if err != nil {
		return nil, err
	}

	err = set(domain.StatePartialResponse, []exit{
		{domain.StateDeath, r.Death},
		{domain.StatePostAdverseEvent, r.AdverseEvent},
		{domain.StateRemission0to3, r.Remission},
		{domain.StateRelapse, r.Relapse},
	}, domain.StatePartialResponse)
	if err != nil {
		return nil, err
	}

	for k, s := range domain.RemissionTunnel {
		stay := s
		if r.advances(k, c) {
			stay = domain.RemissionTunnel[k+1]
		}
		err = set(s, []exit{
			{domain.StateDeath, r.Death},
			{domain.StatePostAdverseEvent, r.AdverseEvent},
			{domain.StateRelapse, r.Relapse * r.TunnelMultipliers[k]},
		}, stay)
		if err != nil {
			return nil, err
		}
	}

	err = set(domain.StateRelapse, []exit{
		{domain.StateDeath, r.Death},
		{domain.StatePostAdverseEvent, r.AdverseEvent},
		{domain.StateRemission0to3, r.RetreatmentRemission},
	}, domain.StateRelapse)
	if err != nil {
		return nil, err
	}

	err = set(domain.StatePostAdverseEvent, []exit{
		{domain.StateDeath, r.Death},
		{domain.StateDepressed, r.AdverseEventRecovery},
	}, domain.StatePostAdverseEvent)
	if err != nil {
		return nil, err
	}

	m[domain.StateDeath][domain.StateDeath] = 1

	return &m, nil
}

// Validate checks that every row is a probability distribution.
func Validate(m *Matrix) error {
	for from := range m {
		row := m[from][:]
		for to, p := range row {
			if p < 0 || p > 1+rowTolerance || math.IsNaN(p) {
				return fmt.Errorf("%w: entry [%s][%s]=%g",
					ErrInvalidTransition, domain.State(from), domain.State(to), p)
			}
		}
		if sum := floats.Sum(row); math.Abs(sum-1) > rowTolerance {
			return fmt.Errorf("%w: row %s sums to %g", ErrInvalidTransition, domain.State(from), sum)
		}
	}
	return nil
}
