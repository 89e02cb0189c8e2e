package domain

import "time"

// AnalysisRun identifies one simulation or analysis batch.
type AnalysisRun struct {
	RunID        string
	ConfigHash   string
	Jurisdiction string
	Seed         uint64
	Draws        int
	CreatedAt    time.Time
}

// CurvePoint is one (lambda, strategy) row of the acceptability output.
type CurvePoint struct {
	RunID       string
	Perspective Perspective
	Lambda      float64
	Strategy    string
	ExpectedNMB float64
	ProbOptimal float64
	OnFrontier  bool
}

// ThresholdPoint is one lambda row of the frontier, EVPI and price output.
type ThresholdPoint struct {
	RunID            string
	Perspective      Perspective
	Lambda           float64
	FrontierStrategy string
	FrontierProb     float64
	FrontierNMB      float64
	EVPI             float64
	PopulationEVPI   float64

	VBP           *float64 // nil when no focal price is known
	VBPCompetitor string
	CurrentPrice  *float64
}

// SensitivityRow is one parameter of a PRCC table of Comparator
// against Base.
type SensitivityRow struct {
	RunID       string
	Perspective Perspective
	Base        string
	Comparator  string
	Lambda      float64
	Parameter   string
	PRCC        float64
	PValue      float64
	Rank        int
	N           int
}
