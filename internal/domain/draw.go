package domain

// DrawRecord is one row of the draw table.
type DrawRecord struct {
	Draw        int
	Strategy    string
	Cost        float64
	Effect      float64
	Perspective Perspective
}

// ParameterSample is one sampled uncertain parameter value for a draw.
type ParameterSample struct {
	Draw  int
	Name  string
	Value float64
}
