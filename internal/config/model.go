// Package config loads the model document and runtime settings.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/markov"
)

// ErrInvalidConfig wraps every validation problem of a model document.
var ErrInvalidConfig = errors.New("invalid configuration")

// Model is the full model document.
type Model struct {
	domain.StrategyConfig `yaml:",inline"`

	Jurisdictions []domain.Jurisdiction     `yaml:"jurisdictions"`
	Simulation    domain.SimulationSettings `yaml:"simulation"`
	Analysis      domain.AnalysisSettings   `yaml:"analysis"`
}

// Load reads and validates a model document from path.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a model document.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidConfig, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Jurisdiction returns the jurisdiction with the given id.
func (m *Model) Jurisdiction(id string) (domain.Jurisdiction, bool) {
	for _, j := range m.Jurisdictions {
		if j.ID == id {
			return j, true
		}
	}
	return domain.Jurisdiction{}, false
}

// Validate checks the whole document in one pass and reports every
// problem found.
func (m *Model) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	// strategies
	if len(m.Strategies) < 2 {
		add("need at least 2 strategies, got %d", len(m.Strategies))
	}
	ids := map[string]bool{}
	for _, s := range m.Strategies {
		if s.ID == "" {
			add("strategy with empty id")
			continue
		}
		if ids[s.ID] {
			add("duplicate strategy %q", s.ID)
		}
		ids[s.ID] = true
		validateStrategy(s, add)
	}
	if m.BaseStrategy == "" {
		add("base_strategy is required")
	} else if !ids[m.BaseStrategy] {
		add("base_strategy %q is not a configured strategy", m.BaseStrategy)
	}
	if m.FocalStrategy != "" && !ids[m.FocalStrategy] {
		add("focal_strategy %q is not a configured strategy", m.FocalStrategy)
	}

	// jurisdictions
	if len(m.Jurisdictions) == 0 {
		add("at least one jurisdiction is required")
	}
	jids := map[string]bool{}
	for _, j := range m.Jurisdictions {
		if j.ID == "" {
			add("jurisdiction with empty id")
			continue
		}
		if jids[j.ID] {
			add("duplicate jurisdiction %q", j.ID)
		}
		jids[j.ID] = true
		if !inRange(j.CostDiscount, 0, 1) || !inRange(j.UtilityDiscount, 0, 1) {
			add("jurisdiction %s: discount rates must be in [0,1]", j.ID)
		}
		if !nonNegative(j.AnnualDeathRate) {
			add("jurisdiction %s: annual_death_rate must be non-negative", j.ID)
		}
		for _, s := range domain.States() {
			if !nonNegative(j.StateCosts[s]) || !nonNegative(j.ProductivityLoss[s]) {
				add("jurisdiction %s: %s costs must be non-negative", j.ID, s)
			}
		}
	}

	validateSimulation(m.Simulation, add)
	validateAnalysis(m.Analysis, add)
	for _, s := range m.Strategies {
		validateUtilityFloor(s, m.Simulation, add)
	}

	// Transition rows only make sense once the pieces above are sane.
	if len(errs) == 0 {
		for _, s := range m.Strategies {
			for _, j := range m.Jurisdictions {
				rates, err := markov.NewRates(s, j, m.Simulation)
				if err == nil {
					_, err = markov.Transition(rates, 0)
				}
				if err != nil {
					errs = append(errs, fmt.Errorf("strategy %s in %s: %w", s.ID, j.ID, err))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func validateStrategy(s domain.Strategy, add func(string, ...any)) {
	c := s.Clinical
	probs := []struct {
		name  string
		value float64
	}{
		{"remission", c.Remission},
		{"partial_response", c.PartialResponse},
		{"adverse_event", c.AdverseEvent},
		{"retreatment_remission", c.RetreatmentRemission},
		{"adverse_event_recovery", c.AdverseEventRecovery},
	}
	for _, p := range probs {
		if !inRange(p.value, 0, 1) {
			add("strategy %s: %s must be in [0,1], got %v", s.ID, p.name, p.value)
		}
	}
	if !nonNegative(c.RelapseHazard) {
		add("strategy %s: relapse_hazard must be non-negative", s.ID)
	}

	k := s.Costs
	for _, v := range []float64{k.AcutePerCycle, k.MaintenancePerCycle, k.Procedure, k.AdverseEvent, k.SessionsPerCycle, k.TransportPerSession} {
		if !nonNegative(v) {
			add("strategy %s: costs must be non-negative", s.ID)
			break
		}
	}
	if s.ListPrice != nil && s.ListPrice.IsNegative() {
		add("strategy %s: list_price must be non-negative", s.ID)
	}
	if s.Utility.CognitiveCycles < 0 {
		add("strategy %s: cognitive_cycles must be non-negative", s.ID)
	}
	if !nonNegative(s.Utility.AcuteDisutility) || !nonNegative(s.Utility.CognitiveDisutility) {
		add("strategy %s: disutilities must be non-negative", s.ID)
	}
	for _, p := range s.Perspectives {
		if !p.IsValid() {
			add("strategy %s: unknown perspective %q", s.ID, p)
		}
	}
}

// validateUtilityFloor rejects a strategy whose first-cycle decrements push
// any living state's utility below zero.
func validateUtilityFloor(s domain.Strategy, sim domain.SimulationSettings, add func(string, ...any)) {
	decrement := s.Utility.AcuteDisutility
	if s.Utility.CognitiveCycles > 0 {
		decrement += s.Utility.CognitiveDisutility
	}
	if decrement <= 0 {
		return
	}
	for _, st := range domain.States() {
		if !st.IsAlive() {
			continue
		}
		if u := sim.StateUtilities[st]; u-decrement < 0 {
			add("strategy %s: utility decrements %v exceed %s utility %v", s.ID, decrement, st, u)
		}
	}
}

func validateSimulation(s domain.SimulationSettings, add func(string, ...any)) {
	if s.CycleMonths <= 0 {
		add("simulation.cycle_months must be positive")
	} else if s.HorizonMonths < s.CycleMonths || s.HorizonMonths%s.CycleMonths != 0 {
		add("simulation.horizon_months must be a positive multiple of cycle_months")
	}
	if s.AcuteCycles < 0 {
		add("simulation.acute_cycles must be non-negative")
	}
	if s.Draws <= 0 {
		add("simulation.draws must be positive")
	}
	if n := len(s.TunnelRelapseMultipliers); n != 0 && n != len(domain.RemissionTunnel) {
		add("simulation.tunnel_relapse_multipliers needs %d values, got %d", len(domain.RemissionTunnel), n)
	}
	for _, v := range s.TunnelRelapseMultipliers {
		if !nonNegative(v) {
			add("simulation.tunnel_relapse_multipliers must be non-negative")
			break
		}
	}
	for _, st := range domain.States() {
		if v := s.StateUtilities[st]; !inRange(v, 0, 1) {
			add("simulation.state_utilities %s must be in [0,1], got %v", st, v)
		}
	}
	u := s.Uncertainty
	if !nonNegative(u.ProbabilityCV) || !nonNegative(u.CostCV) || !nonNegative(u.UtilityCV) {
		add("simulation.uncertainty coefficients must be non-negative")
	}
}

func validateAnalysis(a domain.AnalysisSettings, add func(string, ...any)) {
	for _, v := range []float64{a.LambdaMin, a.LambdaMax, a.LambdaStep, a.PRCCLambda} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			add("analysis lambda values must be finite")
			break
		}
	}
	if a.LambdaStep <= 0 {
		add("analysis.lambda_step must be positive")
	}
	if a.LambdaMax < a.LambdaMin {
		add("analysis.lambda_max must not be below lambda_min")
	}
	if !nonNegative(a.Population) {
		add("analysis.population must be non-negative")
	}
	if a.PopulationHorizonYears < 0 {
		add("analysis.population_horizon_years must be non-negative")
	}
	for _, e := range a.Epsilons {
		if !nonNegative(e) {
			add("analysis.epsilons must be non-negative")
			break
		}
	}
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
