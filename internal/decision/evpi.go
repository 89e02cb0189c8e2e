package decision

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// EVPIPoint is the value of perfect information at one threshold.
type EVPIPoint struct {
	Lambda         float64
	EVCI           float64 // max over strategies of expected NMB
	PerfectInfo    float64 // expected per-draw maximum NMB
	EVPI           float64
	PopulationEVPI float64
}

// Population scales per-patient EVPI to a population. With a positive
// horizon the annual population is summed over that many years,
// discounted at DiscountRate.
type Population struct {
	Size         float64
	HorizonYears int
	DiscountRate float64
}

// Multiplier returns the effective population size.
func (p Population) Multiplier() float64 {
	if p.HorizonYears <= 0 {
		return p.Size
	}
	years := 0.0
	for t := 0; t < p.HorizonYears; t++ {
		years += math.Pow(1+p.DiscountRate, -float64(t))
	}
	return p.Size * years
}

// EVPI computes the expected value of perfect information per threshold.
// Negative differences from rounding are clamped to zero.
func EVPI(res *NMBResult, pop Population) []EVPIPoint {
	mult := pop.Multiplier()
	out := make([]EVPIPoint, len(res.Lambdas))
	column := make([]float64, len(res.Strategies))

	for l, lambda := range res.Lambdas {
		evci := floats.Max(res.Expected[l])

		perfect := 0.0
		nd := len(res.Draws)
		for d := 0; d < nd; d++ {
			for s := range res.Strategies {
				column[s] = res.Values[l][s][d]
			}
			perfect += floats.Max(column)
		}
		if nd > 0 {
			perfect /= float64(nd)
		}

		evpi := math.Max(0, perfect-evci)
		out[l] = EVPIPoint{
			Lambda:         lambda,
			EVCI:           evci,
			PerfectInfo:    perfect,
			EVPI:           evpi,
			PopulationEVPI: evpi * mult,
		}
	}
	return out
}
