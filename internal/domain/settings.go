package domain

// Default tunnel relapse multipliers, one per remission bucket.
var DefaultTunnelRelapseMultipliers = []float64{1.0, 0.8, 0.6, 0.4}

// SimulationSettings control the cohort simulation and PSA.
type SimulationSettings struct {
	CycleMonths   int    `yaml:"cycle_months"`
	HorizonMonths int    `yaml:"horizon_months"`
	AcuteCycles   int    `yaml:"acute_cycles"`
	Draws         int    `yaml:"draws"`
	Seed          uint64 `yaml:"seed"`

	// TunnelRelapseMultipliers scale the relapse hazard per remission bucket.
	TunnelRelapseMultipliers []float64 `yaml:"tunnel_relapse_multipliers,omitempty"`

	StateUtilities StateValues `yaml:"state_utilities"` // annual

	Uncertainty Uncertainty `yaml:"uncertainty"`
}

// Cycles returns the number of simulated cycles.
func (s SimulationSettings) Cycles() int {
	if s.CycleMonths <= 0 {
		return 0
	}
	return s.HorizonMonths / s.CycleMonths
}

// CyclesPerYear returns the discounting denominator.
func (s SimulationSettings) CyclesPerYear() float64 {
	return 12.0 / float64(s.CycleMonths)
}

// Multipliers returns the configured tunnel multipliers or the defaults.
func (s SimulationSettings) Multipliers() []float64 {
	if len(s.TunnelRelapseMultipliers) == 0 {
		return DefaultTunnelRelapseMultipliers
	}
	return s.TunnelRelapseMultipliers
}

// Uncertainty is the coefficient of variation applied per parameter class.
// A zero CV keeps that class at its point estimate.
type Uncertainty struct {
	ProbabilityCV float64 `yaml:"probability_cv"`
	CostCV        float64 `yaml:"cost_cv"`
	UtilityCV     float64 `yaml:"utility_cv"`
}

// AnalysisSettings control the decision layer.
type AnalysisSettings struct {
	LambdaMin  float64 `yaml:"lambda_min"`
	LambdaMax  float64 `yaml:"lambda_max"`
	LambdaStep float64 `yaml:"lambda_step"`

	Population             float64   `yaml:"population"`
	PopulationHorizonYears int       `yaml:"population_horizon_years,omitempty"`
	Epsilons               []float64 `yaml:"epsilons,omitempty"`
	PRCCLambda             float64   `yaml:"prcc_lambda"`
}
