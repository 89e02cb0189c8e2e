package decision

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/draws"
)

// baseABMatrix builds the deterministic three-strategy example with
// aligned draws 0..999.
func baseABMatrix(t *testing.T) *draws.Matrix {
	t.Helper()
	var records []domain.DrawRecord
	for d := 0; d < 1000; d++ {
		records = append(records,
			domain.DrawRecord{Draw: d, Strategy: "Base", Cost: 5000, Effect: 0.60, Perspective: domain.PerspectiveHealthSystem},
			domain.DrawRecord{Draw: d, Strategy: "A", Cost: 7000, Effect: 0.80, Perspective: domain.PerspectiveHealthSystem},
			domain.DrawRecord{Draw: d, Strategy: "B", Cost: 6000, Effect: 0.70, Perspective: domain.PerspectiveHealthSystem},
		)
	}
	tbl, err := draws.New(records)
	require.NoError(t, err)
	m, err := tbl.Matrix(domain.PerspectiveHealthSystem)
	require.NoError(t, err)
	return m
}

// noisyMatrix builds a random aligned table.
func noisyMatrix(t *testing.T, seed uint64, n int) *draws.Matrix {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 1))
	var records []domain.DrawRecord
	for d := 0; d < n; d++ {
		for i, s := range []string{"Base", "A", "B", "C"} {
			records = append(records, domain.DrawRecord{
				Draw:        d,
				Strategy:    s,
				Cost:        4000 + 1000*float64(i) + 3000*rng.Float64(),
				Effect:      0.5 + 0.05*float64(i) + 0.3*rng.Float64(),
				Perspective: domain.PerspectiveSocietal,
			})
		}
	}
	tbl, err := draws.New(records)
	require.NoError(t, err)
	m, err := tbl.Matrix(domain.PerspectiveSocietal)
	require.NoError(t, err)
	return m
}

func TestLambdaGrid(t *testing.T) {
	tests := []struct {
		name           string
		min, max, step float64
		want           []float64
	}{
		{"exact multiple", 0, 100, 25, []float64{0, 25, 50, 75, 100}},
		{"max appended", 0, 90, 25, []float64{0, 25, 50, 75, 90}},
		{"min equals max", 500, 500, 10, []float64{500}},
		{"float drift replaced", 0, 0.3, 0.1, []float64{0, 0.1, 0.2, 0.3}},
		{"near max replaced", 0, 100.0000000001, 25, []float64{0, 25, 50, 75, 100.0000000001}},
		{"step below rounding", 0, 5e-8, 4e-9, []float64{0, 1e-8, 2e-8, 3e-8, 4e-8, 5e-8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LambdaGrid(tt.min, tt.max, tt.step)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// max exactly once and strictly increasing
			count := 0
			for i, v := range got {
				if v == tt.max {
					count++
				}
				if i > 0 {
					assert.Greater(t, v, got[i-1])
				}
			}
			assert.Equal(t, 1, count)
		})
	}
}

func TestLambdaGrid_Errors(t *testing.T) {
	cases := [][3]float64{
		{0, 100, 0},
		{0, 100, -5},
		{100, 0, 10},
		{0, math.Inf(1), 10},
		{math.NaN(), 100, 10},
		{0, 1, 1e-9},
	}
	for _, c := range cases {
		_, err := LambdaGrid(c[0], c[1], c[2])
		assert.True(t, errors.Is(err, ErrInvalidGrid), "case %v: got %v", c, err)
	}
}

func TestArgmaxWithTiebreak(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		names  []string
		focal  Focal
		want   string
	}{
		{"clear max", []float64{1, 3, 2}, []string{"A", "B", "C"}, NoFocal(), "B"},
		{"focal wins tie", []float64{5, 5, 1}, []string{"A", "Z", "C"}, FocalStrategy("Z"), "Z"},
		{"focal wins tie reordered", []float64{1, 5, 5}, []string{"C", "Z", "A"}, FocalStrategy("Z"), "Z"},
		{"alphabetical without focal", []float64{5, 5, 1}, []string{"Z", "M", "A"}, NoFocal(), "M"},
		{"alphabetical when focal not tied", []float64{5, 5, 1}, []string{"Z", "M", "A"}, FocalStrategy("A"), "M"},
		{"within tolerance is tied", []float64{1e6, 1e6 - 1e-4}, []string{"B", "A"}, NoFocal(), "A"},
		{"outside tolerance", []float64{1e6, 1e6 - 1e-2}, []string{"B", "A"}, NoFocal(), "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := ArgmaxWithTiebreak(tt.values, tt.names, tt.focal)
			assert.Equal(t, tt.want, tt.names[i])
		})
	}

	assert.Equal(t, -1, ArgmaxWithTiebreak(nil, nil, NoFocal()))
}

func TestFocal(t *testing.T) {
	name, ok := NoFocal().Get()
	assert.False(t, ok)
	assert.Empty(t, name)

	f := FocalStrategy("A")
	name, ok = f.Get()
	assert.True(t, ok)
	assert.Equal(t, "A", name)
	assert.True(t, f.Is("A"))
	assert.False(t, NoFocal().Is(""))
}

func TestBaseAB_EndToEnd(t *testing.T) {
	m := baseABMatrix(t)
	grid, err := LambdaGrid(0, 100000, 10000)
	require.NoError(t, err)

	res, err := ComputeNMB(m, grid, Options{Strategies: []string{"Base", "A", "B"}})
	require.NoError(t, err)

	l := 5
	require.Equal(t, 50000.0, res.Lambdas[l])
	assert.InDelta(t, 25000, res.Expected[l][0], 1e-6)
	assert.InDelta(t, 33000, res.Expected[l][1], 1e-6)
	assert.InDelta(t, 29000, res.Expected[l][2], 1e-6)

	acc := Acceptability(res, []string{"Base", "A", "B"})
	assert.Equal(t, "A", acc.Frontier[l].Strategy)
	assert.Equal(t, 1.0, acc.Frontier[l].Probability)
	assert.InDelta(t, 33000, acc.Frontier[l].ExpectedNMB, 1e-6)

	evpi := EVPI(res, Population{Size: 1000})
	assert.Equal(t, 0.0, evpi[l].EVPI)
	assert.Equal(t, 0.0, evpi[l].PopulationEVPI)

	// At lambda 0 the cheapest strategy is optimal.
	assert.Equal(t, "Base", acc.Frontier[0].Strategy)
}

func TestComputeNMB_Errors(t *testing.T) {
	m := baseABMatrix(t)

	_, err := ComputeNMB(m, []float64{0}, Options{Strategies: []string{"Base", "X", "Y"}})
	require.True(t, errors.Is(err, ErrStrategyNotFound))
	var missing *MissingStrategiesError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"X", "Y"}, missing.Names)

	_, err = ComputeNMB(m, []float64{0}, Options{Strategies: []string{"A"}})
	assert.True(t, errors.Is(err, ErrNoStrategies))

	_, err = ComputeNMB(m, nil, Options{})
	assert.True(t, errors.Is(err, ErrInvalidGrid))
}

func TestComputeNMB_TieBreakIndependentOfOrder(t *testing.T) {
	hs := domain.PerspectiveHealthSystem
	tbl, err := draws.New([]domain.DrawRecord{
		{Draw: 0, Strategy: "Zeta", Cost: 1000, Effect: 0.5, Perspective: hs},
		{Draw: 0, Strategy: "Alpha", Cost: 1000, Effect: 0.5, Perspective: hs},
	})
	require.NoError(t, err)
	m, err := tbl.Matrix(hs)
	require.NoError(t, err)

	for _, order := range [][]string{{"Zeta", "Alpha"}, {"Alpha", "Zeta"}} {
		res, err := ComputeNMB(m, []float64{20000}, Options{Strategies: order, Focal: FocalStrategy("Zeta")})
		require.NoError(t, err)
		assert.Equal(t, "Zeta", res.OptimalName(0, 0))

		res, err = ComputeNMB(m, []float64{20000}, Options{Strategies: order})
		require.NoError(t, err)
		assert.Equal(t, "Alpha", res.OptimalName(0, 0))
	}
}

func TestAcceptability_Completeness(t *testing.T) {
	m := noisyMatrix(t, 7, 300)
	grid, err := LambdaGrid(0, 80000, 5000)
	require.NoError(t, err)

	res, err := ComputeNMB(m, grid, Options{})
	require.NoError(t, err)

	acc := Acceptability(res, []string{"Base", "A", "B", "C", "Absent"})
	require.Len(t, acc.Curve, len(grid)*5)

	sums := map[float64]float64{}
	for _, p := range acc.Curve {
		sums[p.Lambda] += p.Probability
		if p.Strategy == "Absent" {
			assert.False(t, p.Present)
			assert.Equal(t, 0.0, p.Probability)
		}
	}
	for lambda, sum := range sums {
		assert.InDelta(t, 1.0, sum, 1e-9, "lambda=%v", lambda)
	}
	assert.Len(t, acc.Frontier, len(grid))
}

func TestEVPI_NonNegative(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		m := noisyMatrix(t, seed, 200)
		grid, err := LambdaGrid(0, 100000, 2500)
		require.NoError(t, err)
		res, err := ComputeNMB(m, grid, Options{})
		require.NoError(t, err)

		for _, p := range EVPI(res, Population{Size: 10}) {
			assert.GreaterOrEqual(t, p.EVPI, 0.0)
			assert.GreaterOrEqual(t, p.PerfectInfo, p.EVCI-1e-6)
			assert.InDelta(t, p.EVPI*10, p.PopulationEVPI, 1e-9)
		}
	}
}

func TestPopulation_Multiplier(t *testing.T) {
	assert.Equal(t, 500.0, Population{Size: 500}.Multiplier())
	assert.InDelta(t, 100*(1+1/1.05+1/(1.05*1.05)), Population{Size: 100, HorizonYears: 3, DiscountRate: 0.05}.Multiplier(), 1e-9)
}

func TestValueBasedPrice_Consistency(t *testing.T) {
	m := noisyMatrix(t, 11, 250)
	grid, err := LambdaGrid(0, 100000, 10000)
	require.NoError(t, err)
	res, err := ComputeNMB(m, grid, Options{})
	require.NoError(t, err)

	price := decimal.RequireFromString("1250.50")
	points, err := ValueBasedPrice(res, "C", &price)
	require.NoError(t, err)
	require.Len(t, points, len(grid))

	f := 0
	for i, s := range res.Strategies {
		if s == "C" {
			f = i
		}
	}
	fixed := res.MeanCost[f] - 1250.50
	for _, p := range points {
		recomputed := p.Lambda*res.MeanEffect[f] - (fixed + p.Price)
		assert.InDelta(t, p.CompetitorNMB, recomputed, 1e-6)
		assert.NotEqual(t, "C", p.Competitor)
		assert.Equal(t, 1250.50, p.CurrentPrice)
	}
}

func TestValueBasedPrice_Errors(t *testing.T) {
	m := baseABMatrix(t)
	res, err := ComputeNMB(m, []float64{50000}, Options{})
	require.NoError(t, err)

	_, err = ValueBasedPrice(res, "A", nil)
	assert.True(t, errors.Is(err, ErrMissingPrice))

	price := decimal.NewFromInt(100)
	_, err = ValueBasedPrice(res, "Nope", &price)
	assert.True(t, errors.Is(err, ErrStrategyNotFound))

	points, err := ValueBasedPrice(res, "A", &price)
	require.NoError(t, err)
	// A's value-based price at 50k: 40000 - 6900 - 29000 = 4100
	assert.InDelta(t, 4100, points[0].Price, 1e-6)
	assert.Equal(t, "B", points[0].Competitor)
}
