package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Strategy is one treatment strategy of the model.
type Strategy struct {
	ID           string           `yaml:"id"`
	Label        string           `yaml:"label,omitempty"`
	ListPrice    *decimal.Decimal `yaml:"list_price,omitempty"`
	Perspectives []Perspective    `yaml:"perspectives,omitempty"`

	Clinical ClinicalParams `yaml:"clinical"`
	Costs    CostParams     `yaml:"costs"`
	Utility  UtilityParams  `yaml:"utility"`
}

// DisplayName returns the label if set, otherwise the id.
func (s Strategy) DisplayName() string {
	if s.Label != "" {
		return s.Label
	}
	return s.ID
}

// AppliesTo reports whether the strategy is evaluated under p.
// An empty perspective list means every perspective applies.
func (s Strategy) AppliesTo(p Perspective) bool {
	if len(s.Perspectives) == 0 {
		return true
	}
	return slices.Contains(s.Perspectives, p)
}

// ClinicalParams holds per-cycle transition probabilities and hazards.
type ClinicalParams struct {
	Remission            float64 `yaml:"remission"`              // Depressed/PartialResponse -> Remission_0-3m
	PartialResponse      float64 `yaml:"partial_response"`       // Depressed -> PartialResponse
	RelapseHazard        float64 `yaml:"relapse_hazard"`         // monthly hazard
	AdverseEvent         float64 `yaml:"adverse_event"`          // alive -> Post-AdverseEvent
	RetreatmentRemission float64 `yaml:"retreatment_remission"`  // Relapse -> Remission_0-3m
	AdverseEventRecovery float64 `yaml:"adverse_event_recovery"` // Post-AdverseEvent -> Depressed
}

// CostParams holds strategy-specific treatment costs.
type CostParams struct {
	AcutePerCycle       float64 `yaml:"acute_per_cycle"`
	MaintenancePerCycle float64 `yaml:"maintenance_per_cycle"`
	Procedure           float64 `yaml:"procedure"`
	AdverseEvent        float64 `yaml:"adverse_event"`
	SessionsPerCycle    float64 `yaml:"sessions_per_cycle"`
	TransportPerSession float64 `yaml:"transport_per_session"`
}

// UtilityParams holds strategy-specific utility decrements (annual).
type UtilityParams struct {
	AcuteDisutility     float64 `yaml:"acute_disutility"`
	CognitiveDisutility float64 `yaml:"cognitive_disutility"`
	CognitiveCycles     int     `yaml:"cognitive_cycles"`
}

// StrategyConfig is the ordered strategy set of an analysis.
type StrategyConfig struct {
	BaseStrategy  string     `yaml:"base_strategy"`
	FocalStrategy string     `yaml:"focal_strategy,omitempty"`
	Strategies    []Strategy `yaml:"strategies"`
}

// IDs returns strategy ids in configured order.
func (c StrategyConfig) IDs() []string {
	ids := make([]string, len(c.Strategies))
	for i, s := range c.Strategies {
		ids[i] = s.ID
	}
	return ids
}

// Lookup finds a strategy by id.
func (c StrategyConfig) Lookup(id string) (Strategy, bool) {
	for _, s := range c.Strategies {
		if s.ID == id {
			return s, true
		}
	}
	return Strategy{}, false
}

// ListPrice returns the list price of a strategy if one is configured.
func (c StrategyConfig) ListPrice(id string) (decimal.Decimal, bool) {
	s, ok := c.Lookup(id)
	if !ok || s.ListPrice == nil {
		return decimal.Zero, false
	}
	return *s.ListPrice, true
}

// StrategiesFor returns ids of strategies applicable under p, in order.
func (c StrategyConfig) StrategiesFor(p Perspective) []string {
	var ids []string
	for _, s := range c.Strategies {
		if s.AppliesTo(p) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}
