package simulation

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"trd-cea-lab/internal/domain"
)

// Sample is one joint realization of every uncertain input.
type Sample struct {
	Draw          int
	Strategies    []domain.Strategy
	Jurisdictions []domain.Jurisdiction
	Settings      domain.SimulationSettings

	// Parameters holds values shared by every jurisdiction; Local holds
	// each jurisdiction's own cost draws, indexed like Jurisdictions.
	Parameters []domain.ParameterSample
	Local      [][]domain.ParameterSample
}

// ParametersFor returns the trace that drove jurisdiction i: the shared
// values followed by that jurisdiction's own.
func (s Sample) ParametersFor(i int) []domain.ParameterSample {
	out := make([]domain.ParameterSample, 0, len(s.Parameters)+len(s.Local[i]))
	out = append(out, s.Parameters...)
	return append(out, s.Local[i]...)
}

// Sampler draws PSA samples around the point estimates of a model.
// Every draw owns a PCG stream keyed by (seed, draw), so a draw's values
// do not depend on how many other draws are taken or in what order.
type Sampler struct {
	strategies    []domain.Strategy
	jurisdictions []domain.Jurisdiction
	settings      domain.SimulationSettings
}

// NewSampler creates a sampler over the given point estimates.
func NewSampler(strategies []domain.Strategy, jurisdictions []domain.Jurisdiction, settings domain.SimulationSettings) *Sampler {
	return &Sampler{
		strategies:    strategies,
		jurisdictions: jurisdictions,
		settings:      settings,
	}
}

// Sample returns the realization for draw d.
func (s *Sampler) Sample(d int) Sample {
	src := rand.NewPCG(s.settings.Seed, uint64(d))
	u := s.settings.Uncertainty

	out := Sample{
		Draw:          d,
		Strategies:    make([]domain.Strategy, len(s.strategies)),
		Jurisdictions: make([]domain.Jurisdiction, len(s.jurisdictions)),
		Settings:      s.settings,
		Local:         make([][]domain.ParameterSample, len(s.jurisdictions)),
	}
	rec := func(name string, v float64) float64 {
		out.Parameters = append(out.Parameters, domain.ParameterSample{Draw: d, Name: name, Value: v})
		return v
	}

	// Sampling order is fixed: strategies, jurisdictions, utilities.
	for i, st := range s.strategies {
		c := st.Clinical
		c.Remission = rec(st.ID+".remission", betaDraw(src, c.Remission, u.ProbabilityCV))
		c.PartialResponse = rec(st.ID+".partial_response", betaDraw(src, c.PartialResponse, u.ProbabilityCV))
		c.RelapseHazard = rec(st.ID+".relapse_hazard", gammaDraw(src, c.RelapseHazard, u.ProbabilityCV))
		c.AdverseEvent = rec(st.ID+".adverse_event", betaDraw(src, c.AdverseEvent, u.ProbabilityCV))
		st.Clinical = c

		k := st.Costs
		k.AcutePerCycle = rec(st.ID+".acute_cost", gammaDraw(src, k.AcutePerCycle, u.CostCV))
		k.MaintenancePerCycle = rec(st.ID+".maintenance_cost", gammaDraw(src, k.MaintenancePerCycle, u.CostCV))
		k.AdverseEvent = rec(st.ID+".adverse_event_cost", gammaDraw(src, k.AdverseEvent, u.CostCV))
		st.Costs = k

		out.Strategies[i] = st
	}

	for i, j := range s.jurisdictions {
		for _, state := range domain.States() {
			if j.StateCosts[state] > 0 {
				v := gammaDraw(src, j.StateCosts[state], u.CostCV)
				out.Local[i] = append(out.Local[i], domain.ParameterSample{Draw: d, Name: j.ID + ".cost." + state.String(), Value: v})
				j.StateCosts[state] = v
			}
		}
		out.Jurisdictions[i] = j
	}

	for _, state := range domain.States() {
		if v := s.settings.StateUtilities[state]; v > 0 && v < 1 {
			out.Settings.StateUtilities[state] = rec("utility."+state.String(), betaDraw(src, v, u.UtilityCV))
		}
	}

	return out
}

// betaDraw samples a probability with the given mean and coefficient of
// variation by the method of moments. Infeasible moments keep the mean.
func betaDraw(src rand.Source, mean, cv float64) float64 {
	if cv <= 0 || mean <= 0 || mean >= 1 {
		return mean
	}
	sd := cv * mean
	k := mean*(1-mean)/(sd*sd) - 1
	if k <= 0 {
		return mean
	}
	return distuv.Beta{Alpha: mean * k, Beta: (1 - mean) * k, Src: src}.Rand()
}

// gammaDraw samples a non-negative quantity with the given mean and
// coefficient of variation.
func gammaDraw(src rand.Source, mean, cv float64) float64 {
	if cv <= 0 || mean <= 0 {
		return mean
	}
	shape := 1 / (cv * cv)
	return distuv.Gamma{Alpha: shape, Beta: shape / mean, Src: src}.Rand()
}
