package decision

// CEACPoint is the probability that a strategy is optimal at a threshold.
type CEACPoint struct {
	Lambda      float64
	Strategy    string
	Probability float64
	ExpectedNMB float64
	Present     bool // false when the strategy has no draws in this perspective
}

// CEAFPoint is the expected-optimal strategy at a threshold.
type CEAFPoint struct {
	Lambda      float64
	Strategy    string
	Probability float64
	ExpectedNMB float64
}

// AcceptabilityResult holds the acceptability curves and frontier.
type AcceptabilityResult struct {
	Curve    []CEACPoint // lambda-major, strategies in reporting order
	Frontier []CEAFPoint
}

// Acceptability derives CEAC and CEAF from an NMB result. Every name in
// configured is reported; strategies without draws get probability 0.
// Strategies present but not configured are appended in result order.
func Acceptability(res *NMBResult, configured []string) AcceptabilityResult {
	order := append([]string(nil), configured...)
	known := make(map[string]bool, len(order))
	for _, s := range order {
		known[s] = true
	}
	for _, s := range res.Strategies {
		if !known[s] {
			order = append(order, s)
			known[s] = true
		}
	}

	index := make(map[string]int, len(res.Strategies))
	for i, s := range res.Strategies {
		index[s] = i
	}

	out := AcceptabilityResult{
		Curve:    make([]CEACPoint, 0, len(res.Lambdas)*len(order)),
		Frontier: make([]CEAFPoint, 0, len(res.Lambdas)),
	}
	nd := float64(len(res.Draws))

	for l, lambda := range res.Lambdas {
		counts := make([]int, len(res.Strategies))
		for _, best := range res.Optimal[l] {
			counts[best]++
		}
		prob := func(i int) float64 {
			if nd == 0 {
				return 0
			}
			return float64(counts[i]) / nd
		}

		for _, s := range order {
			i, ok := index[s]
			if !ok {
				out.Curve = append(out.Curve, CEACPoint{Lambda: lambda, Strategy: s})
				continue
			}
			out.Curve = append(out.Curve, CEACPoint{
				Lambda:      lambda,
				Strategy:    s,
				Probability: prob(i),
				ExpectedNMB: res.Expected[l][i],
				Present:     true,
			})
		}

		best := ArgmaxWithTiebreak(res.Expected[l], res.Strategies, res.Focal)
		out.Frontier = append(out.Frontier, CEAFPoint{
			Lambda:      lambda,
			Strategy:    res.Strategies[best],
			Probability: prob(best),
			ExpectedNMB: res.Expected[l][best],
		})
	}
	return out
}
