package markov

import (
	"fmt"
	"math"

	"trd-cea-lab/internal/domain"
)

// Input is everything one cohort simulation needs.
type Input struct {
	Strategy     domain.Strategy
	Jurisdiction domain.Jurisdiction
	Perspective  domain.Perspective
	Settings     domain.SimulationSettings
}

// Result holds discounted lifetime totals for one cohort run.
type Result struct {
	Cost   float64
	Effect float64
}

// Trace is a Result with the occupancy at the start of every cycle and
// after the final one.
type Trace struct {
	Result
	Occupancy []Occupancy
}

// Simulate runs the cohort model and returns discounted totals.
func Simulate(in Input) (Result, error) {
	return run(in, nil)
}

// SimulateTrace runs the cohort model and records occupancy per cycle.
func SimulateTrace(in Input) (*Trace, error) {
	trace := &Trace{Occupancy: make([]Occupancy, 0, in.Settings.Cycles()+1)}
	res, err := run(in, func(o Occupancy) {
		trace.Occupancy = append(trace.Occupancy, o)
	})
	if err != nil {
		return nil, err
	}
	trace.Result = res
	return trace, nil
}

func run(in Input, observe func(Occupancy)) (Result, error) {
	if !in.Perspective.IsValid() {
		return Result{}, fmt.Errorf("unknown perspective %q", in.Perspective)
	}
	rates, err := NewRates(in.Strategy, in.Jurisdiction, in.Settings)
	if err != nil {
		return Result{}, err
	}

	cycles := in.Settings.Cycles()
	perYear := in.Settings.CyclesPerYear()
	acc := accumulator{
		costRate:    in.Jurisdiction.CostDiscount,
		utilityRate: in.Jurisdiction.UtilityDiscount,
		perYear:     perYear,
	}

	var occ Occupancy
	occ[domain.StateDepressed] = 1

	for c := 0; c < cycles; c++ {
		if observe != nil {
			observe(occ)
		}

		costs := costVector(in, c)
		utils := utilityVector(in, c)
		acc.add(c, costs.Dot(occ), utils.Dot(occ))

		m, err := Transition(rates, c)
		if err != nil {
			return Result{}, fmt.Errorf("cycle %d: %w", c, err)
		}
		occ = occ.Step(m)
	}
	if observe != nil {
		observe(occ)
	}

	return Result{Cost: acc.cost, Effect: acc.effect}, nil
}

// accumulator sums discounted per-cycle contributions.
type accumulator struct {
	costRate    float64
	utilityRate float64
	perYear     float64

	cost   float64
	effect float64
}

func (a *accumulator) add(c int, cost, effect float64) {
	t := float64(c) / a.perYear
	a.cost += cost * math.Pow(1+a.costRate, -t)
	a.effect += effect * math.Pow(1+a.utilityRate, -t)
}

// symptomatic states accrue productivity loss under the societal perspective.
func symptomatic(s domain.State) bool {
	switch s {
	case domain.StateDepressed, domain.StatePartialResponse, domain.StateRelapse, domain.StatePostAdverseEvent:
		return true
	}
	return false
}

// responding states receive maintenance treatment after the acute phase.
func responding(s domain.State) bool {
	return s == domain.StatePartialResponse || s.IsRemission()
}

func costVector(in Input, c int) domain.StateValues {
	var v domain.StateValues
	costs := in.Strategy.Costs
	acute := c < in.Settings.AcuteCycles
	societal := in.Perspective == domain.PerspectiveSocietal

	oneOff := 0.0
	if c == 0 {
		oneOff = costs.Procedure
		if in.Strategy.ListPrice != nil {
			oneOff += in.Strategy.ListPrice.InexactFloat64()
		}
	}

	for _, s := range domain.States() {
		if !s.IsAlive() {
			continue
		}
		x := in.Jurisdiction.StateCosts[s] + oneOff
		switch {
		case acute:
			x += costs.AcutePerCycle
			if societal {
				x += costs.SessionsPerCycle * costs.TransportPerSession
			}
		case responding(s):
			x += costs.MaintenancePerCycle
		}
		if s == domain.StatePostAdverseEvent {
			x += costs.AdverseEvent
		}
		if societal && symptomatic(s) {
			x += in.Jurisdiction.ProductivityLoss[s]
		}
		v[s] = x
	}
	return v
}

func utilityVector(in Input, c int) domain.StateValues {
	var v domain.StateValues
	u := in.Strategy.Utility
	scale := float64(in.Settings.CycleMonths) / 12

	decrement := 0.0
	if k := u.CognitiveCycles; k > 0 && c < k {
		decrement += u.CognitiveDisutility * (1 - float64(c)/float64(k))
	}
	if c == 0 {
		decrement += u.AcuteDisutility
	}

	for _, s := range domain.States() {
		if !s.IsAlive() {
			continue
		}
		v[s] = (in.Settings.StateUtilities[s] - decrement) * scale
	}
	return v
}
