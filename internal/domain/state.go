package domain

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// State is a health state of the disease-progression model.
// The order of the constants is the row/column order of every
// transition matrix and occupancy vector.
type State int

const (
	StateDepressed State = iota
	StatePartialResponse
	StateRemission0to3
	StateRemission4to6
	StateRemission7to12
	StateRemission12Plus
	StateRelapse
	StatePostAdverseEvent
	StateDeath
)

// NumStates is the size of the state space.
const NumStates = 9

var stateNames = [NumStates]string{
	"Depressed",
	"PartialResponse",
	"Remission_0-3m",
	"Remission_4-6m",
	"Remission_7-12m",
	"Remission_12m+",
	"Relapse",
	"Post-AdverseEvent",
	"Death",
}

// RemissionTunnel lists the remission buckets in tunnel order.
var RemissionTunnel = [4]State{
	StateRemission0to3,
	StateRemission4to6,
	StateRemission7to12,
	StateRemission12Plus,
}

// TunnelWidthMonths is the time spent in each remission bucket before
// advancing. The last bucket is terminal (width 0).
var TunnelWidthMonths = [4]int{3, 3, 6, 0}

// States returns all states in matrix order.
func States() []State {
	out := make([]State, NumStates)
	for i := range out {
		out[i] = State(i)
	}
	return out
}

// String returns the state label.
func (s State) String() string {
	if s < 0 || int(s) >= NumStates {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// IsRemission reports whether s is one of the tunnel buckets.
func (s State) IsRemission() bool {
	return s >= StateRemission0to3 && s <= StateRemission12Plus
}

// TunnelIndex returns the bucket position of a remission state, or -1.
func (s State) TunnelIndex() int {
	if !s.IsRemission() {
		return -1
	}
	return int(s - StateRemission0to3)
}

// IsAlive reports whether s is any state other than Death.
func (s State) IsAlive() bool {
	return s != StateDeath
}

// ParseState resolves a state label.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("unknown state %q", name)
}

// StateValues holds one number per state (a cost or utility vector).
// In YAML it is written as a mapping from state label to value; the
// label "Remission" sets all four tunnel buckets at once.
type StateValues [NumStates]float64

// UnmarshalYAML decodes a state-label mapping.
func (v *StateValues) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]float64
	if err := node.Decode(&raw); err != nil {
		return err
	}

	// Apply the alias first so explicit bucket values win.
	if val, ok := raw["Remission"]; ok {
		for _, s := range RemissionTunnel {
			v[s] = val
		}
	}
	for name, val := range raw {
		if name == "Remission" {
			continue
		}
		s, err := ParseState(name)
		if err != nil {
			return err
		}
		v[s] = val
	}
	return nil
}

// Dot returns the inner product of an occupancy vector with v.
func (v StateValues) Dot(occupancy [NumStates]float64) float64 {
	sum := 0.0
	for i := range v {
		sum += occupancy[i] * v[i]
	}
	return sum
}
