package domain

// Jurisdiction holds country-specific costs, discounting and mortality.
type Jurisdiction struct {
	ID              string  `yaml:"id"`
	Currency        string  `yaml:"currency,omitempty"`
	CostDiscount    float64 `yaml:"cost_discount"`
	UtilityDiscount float64 `yaml:"utility_discount"`
	AnnualDeathRate float64 `yaml:"annual_death_rate"` // background mortality rate per year

	StateCosts       StateValues `yaml:"state_costs"`       // per cycle, health system
	ProductivityLoss StateValues `yaml:"productivity_loss"` // per cycle, societal only
}
