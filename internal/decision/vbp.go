package decision

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// VBPPoint is the value-based price of the focal strategy at a threshold.
type VBPPoint struct {
	Lambda        float64
	Price         float64 // price at which focal NMB equals the best competitor
	CurrentPrice  float64
	Competitor    string
	CompetitorNMB float64
	FocalNMB      float64 // expected focal NMB at the current price
}

// Headroom returns the gap between the value-based and current price.
func (p VBPPoint) Headroom() float64 {
	return p.Price - p.CurrentPrice
}

// ValueBasedPrice solves p*(lambda) = lambda*E - K - max_j E[NMB_j] for
// the focal strategy, where K is its mean cost excluding the list price.
func ValueBasedPrice(res *NMBResult, focal string, listPrice *decimal.Decimal) ([]VBPPoint, error) {
	if len(res.Strategies) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNoStrategies, len(res.Strategies))
	}
	f := -1
	for i, s := range res.Strategies {
		if s == focal {
			f = i
		}
	}
	if f < 0 {
		return nil, &MissingStrategiesError{Perspective: res.Perspective, Names: []string{focal}}
	}
	if listPrice == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPrice, focal)
	}

	price := listPrice.InexactFloat64()
	fixed := res.MeanCost[f] - price
	effect := res.MeanEffect[f]

	out := make([]VBPPoint, len(res.Lambdas))
	for l, lambda := range res.Lambdas {
		competitor, best := -1, math.Inf(-1)
		for s := range res.Strategies {
			if s == f {
				continue
			}
			// Alphabetical order breaks exact ties between competitors.
			v := res.Expected[l][s]
			if competitor < 0 || v > best || (v == best && res.Strategies[s] < res.Strategies[competitor]) {
				competitor, best = s, v
			}
		}

		out[l] = VBPPoint{
			Lambda:        lambda,
			Price:         lambda*effect - fixed - best,
			CurrentPrice:  price,
			Competitor:    res.Strategies[competitor],
			CompetitorNMB: best,
			FocalNMB:      res.Expected[l][f],
		}
	}
	return out, nil
}
