package domain

import "fmt"

// Perspective is the costing perspective a draw was simulated under.
type Perspective string

const (
	PerspectiveHealthSystem Perspective = "health_system"
	PerspectiveSocietal     Perspective = "societal"
)

// AllPerspectives lists perspectives in reporting order.
var AllPerspectives = []Perspective{PerspectiveHealthSystem, PerspectiveSocietal}

// String returns the string representation of Perspective.
func (p Perspective) String() string {
	return string(p)
}

// IsValid checks if the perspective is a known value.
func (p Perspective) IsValid() bool {
	return p == PerspectiveHealthSystem || p == PerspectiveSocietal
}

// ParsePerspective converts a raw column value into a Perspective.
func ParsePerspective(s string) (Perspective, error) {
	p := Perspective(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown perspective %q", s)
	}
	return p, nil
}
