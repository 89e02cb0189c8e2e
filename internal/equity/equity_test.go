package equity

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/draws"
)

func TestCompute_IdenticalValuesHaveNoInequality(t *testing.T) {
	x := []float64{0.7, 0.7, 0.7, 0.7}
	for _, eps := range []float64{0, 0.5, 1, 2, 5} {
		r, err := Compute(x, nil, eps)
		require.NoError(t, err)
		assert.True(t, r.AtkinsonDefined)
		assert.Equal(t, 0.0, r.Atkinson, "eps=%v", eps)
		assert.Equal(t, 0.7, r.EDE, "eps=%v", eps)
	}
}

func TestCompute_AtkinsonBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 9))
	for trial := 0; trial < 50; trial++ {
		x := make([]float64, 40)
		for i := range x {
			x[i] = 0.01 + 2*rng.Float64()
		}
		for _, eps := range []float64{0, 0.25, 1, 1.5, 3} {
			r, err := Compute(x, nil, eps)
			require.NoError(t, err)
			require.True(t, r.AtkinsonDefined)
			assert.GreaterOrEqual(t, r.Atkinson, 0.0)
			assert.LessOrEqual(t, r.Atkinson, 1.0)
		}
	}
}

func TestCompute_Consistency(t *testing.T) {
	x := []float64{0.2, 0.5, 0.9, 1.4}
	w := []float64{1, 2, 3, 4}

	for _, eps := range []float64{0.5, 1, 2} {
		r, err := Compute(x, w, eps)
		require.NoError(t, err)

		// EDE and welfare map onto each other through the utility.
		assert.InDelta(t, r.Welfare, utility(r.EDE, eps), 1e-12)
		// Atkinson follows from EDE and the mean.
		assert.InDelta(t, 1-r.EDE/r.Mean, r.Atkinson, 1e-12)
	}

	// Weighted mean is used, weights normalized.
	r, err := Compute(x, w, 0)
	require.NoError(t, err)
	assert.InDelta(t, (0.2+1.0+2.7+5.6)/10, r.Mean, 1e-12)
	assert.InDelta(t, r.Mean, r.EDE, 1e-12)
}

func TestCompute_GeometricMeanAtEpsilonOne(t *testing.T) {
	r, err := Compute([]float64{1, 4}, nil, 1)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, r.EDE, 1e-12)
	assert.InDelta(t, 1-2.0/2.5, r.Atkinson, 1e-12)
}

func TestCompute_NonPositiveMeanIsUndefined(t *testing.T) {
	r, err := Compute([]float64{-1, 0.5}, nil, 0.5)
	require.NoError(t, err)
	assert.False(t, r.AtkinsonDefined)
	assert.False(t, math.IsNaN(r.EDE))
	assert.False(t, math.IsNaN(r.Welfare))
}

func TestCompute_Errors(t *testing.T) {
	_, err := Compute(nil, nil, 1)
	assert.True(t, errors.Is(err, ErrEmptySample))

	_, err = Compute([]float64{1}, nil, -0.5)
	assert.True(t, errors.Is(err, ErrInvalidEpsilon))

	_, err = Compute([]float64{1, 2}, []float64{1}, 1)
	assert.True(t, errors.Is(err, ErrInvalidWeights))

	_, err = Compute([]float64{1, 2}, []float64{0, 0}, 1)
	assert.True(t, errors.Is(err, ErrInvalidWeights))

	_, err = Compute([]float64{1, 2}, []float64{1, -1}, 1)
	assert.True(t, errors.Is(err, ErrInvalidWeights))
}

func TestStrategyTable(t *testing.T) {
	hs := domain.PerspectiveHealthSystem
	tbl, err := draws.New([]domain.DrawRecord{
		{Draw: 0, Strategy: "A", Cost: 1, Effect: 0.5, Perspective: hs},
		{Draw: 1, Strategy: "A", Cost: 1, Effect: 0.9, Perspective: hs},
		{Draw: 0, Strategy: "B", Cost: 1, Effect: 0.7, Perspective: hs},
		{Draw: 1, Strategy: "B", Cost: 1, Effect: 0.7, Perspective: hs},
	})
	require.NoError(t, err)
	m, err := tbl.Matrix(hs)
	require.NoError(t, err)

	rows, err := StrategyTable(m, nil, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2*len(DefaultEpsilons))

	assert.Equal(t, "A", rows[0].Strategy)
	assert.Equal(t, 0.0, rows[0].Epsilon)
	assert.Equal(t, "B", rows[len(rows)-1].Strategy)
	for _, r := range rows {
		if r.Strategy == "B" {
			assert.Equal(t, 0.0, r.Atkinson)
		}
		if r.Strategy == "A" && r.Epsilon > 0 {
			assert.Greater(t, r.Atkinson, 0.0)
		}
	}
}
