package decision

import "math"

// Focal is an optional designated strategy that wins exact ties.
type Focal struct {
	name string
	set  bool
}

// FocalStrategy designates name as the focal strategy.
func FocalStrategy(name string) Focal {
	return Focal{name: name, set: true}
}

// NoFocal returns the absent focal option.
func NoFocal() Focal {
	return Focal{}
}

// Get returns the focal name and whether one is set.
func (f Focal) Get() (string, bool) {
	return f.name, f.set
}

// Is reports whether name is the focal strategy.
func (f Focal) Is(name string) bool {
	return f.set && f.name == name
}

// ArgmaxWithTiebreak returns the index of the best value. Values within
// 1e-9*max(1,|max|) of the maximum are tied; among tied entries the focal
// strategy wins, otherwise the alphabetically first name. The result does
// not depend on the order of values.
func ArgmaxWithTiebreak(values []float64, names []string, focal Focal) int {
	if len(values) == 0 {
		return -1
	}

	best := math.Inf(-1)
	for _, v := range values {
		if v > best {
			best = v
		}
	}
	tol := tolerance(best)

	winner := -1
	for i, v := range values {
		if best-v > tol {
			continue
		}
		if focal.Is(names[i]) {
			return i
		}
		if winner < 0 || names[i] < names[winner] {
			winner = i
		}
	}
	return winner
}
