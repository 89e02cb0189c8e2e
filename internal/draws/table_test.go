package draws

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trd-cea-lab/internal/domain"
)

func rec(draw int, strategy string, cost, effect float64, p domain.Perspective) domain.DrawRecord {
	return domain.DrawRecord{Draw: draw, Strategy: strategy, Cost: cost, Effect: effect, Perspective: p}
}

func sampleRecords() []domain.DrawRecord {
	hs := domain.PerspectiveHealthSystem
	return []domain.DrawRecord{
		rec(1, "B", 6000, 0.70, hs),
		rec(0, "Base", 5000, 0.60, hs),
		rec(0, "B", 6100, 0.71, hs),
		rec(1, "Base", 5100, 0.61, hs),
		rec(0, "Base", 5500, 0.60, domain.PerspectiveSocietal),
	}
}

func TestNew_CopiesInput(t *testing.T) {
	in := sampleRecords()
	tbl, err := New(in)
	require.NoError(t, err)

	in[0].Cost = -1
	assert.Equal(t, 6000.0, tbl.Records()[0].Cost)

	out := tbl.Records()
	out[0].Cost = 42
	assert.Equal(t, 6000.0, tbl.Records()[0].Cost)
}

func TestNew_Validation(t *testing.T) {
	hs := domain.PerspectiveHealthSystem
	tests := []struct {
		name    string
		records []domain.DrawRecord
		wantErr error
	}{
		{"duplicate", []domain.DrawRecord{rec(0, "A", 1, 1, hs), rec(0, "A", 2, 2, hs)}, ErrDuplicateDraw},
		{"negative cost", []domain.DrawRecord{rec(0, "A", -1, 1, hs)}, ErrInvalidRecord},
		{"nan effect", []domain.DrawRecord{rec(0, "A", 1, math.NaN(), hs)}, ErrInvalidRecord},
		{"unknown perspective", []domain.DrawRecord{rec(0, "A", 1, 1, "payer")}, ErrInvalidRecord},
		{"empty strategy", []domain.DrawRecord{rec(0, "", 1, 1, hs)}, ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.records)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestTable_StrategiesAndPerspectives(t *testing.T) {
	tbl, err := New(sampleRecords())
	require.NoError(t, err)

	assert.Equal(t, []domain.Perspective{domain.PerspectiveHealthSystem, domain.PerspectiveSocietal}, tbl.Perspectives())
	assert.Equal(t, []string{"B", "Base"}, tbl.Strategies(domain.PerspectiveHealthSystem))
	assert.Equal(t, []string{"Base"}, tbl.Strategies(domain.PerspectiveSocietal))
	assert.Equal(t, 1, tbl.Filter(domain.PerspectiveSocietal).Len())
}

func TestTable_Matrix(t *testing.T) {
	tbl, err := New(sampleRecords())
	require.NoError(t, err)

	m, err := tbl.Matrix(domain.PerspectiveHealthSystem)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "Base"}, m.Strategies)
	assert.Equal(t, []int{0, 1}, m.Draws)
	assert.Equal(t, []float64{6100, 6000}, m.Cost[0])
	assert.Equal(t, []float64{0.60, 0.61}, m.Effect[1])
	assert.Equal(t, 2, m.NumDraws())
}

func TestTable_Matrix_PerspectiveNotFound(t *testing.T) {
	tbl, err := New(sampleRecords()[:4])
	require.NoError(t, err)

	_, err = tbl.Matrix(domain.PerspectiveSocietal)
	assert.True(t, errors.Is(err, ErrPerspectiveNotFound))
}

func TestTable_Matrix_Misaligned(t *testing.T) {
	hs := domain.PerspectiveHealthSystem
	tests := []struct {
		name    string
		records []domain.DrawRecord
	}{
		{"different counts", []domain.DrawRecord{
			rec(0, "A", 1, 1, hs), rec(1, "A", 1, 1, hs), rec(0, "B", 1, 1, hs),
		}},
		{"different ids", []domain.DrawRecord{
			rec(0, "A", 1, 1, hs), rec(1, "A", 1, 1, hs),
			rec(0, "B", 1, 1, hs), rec(2, "B", 1, 1, hs),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := New(tt.records)
			require.NoError(t, err)
			_, err = tbl.Matrix(hs)
			assert.True(t, errors.Is(err, ErrMisalignedDraws), "got %v", err)
		})
	}
}

func TestMatrix_Select(t *testing.T) {
	tbl, err := New(sampleRecords())
	require.NoError(t, err)
	m, err := tbl.Matrix(domain.PerspectiveHealthSystem)
	require.NoError(t, err)

	sel, missing := m.Select([]string{"Base", "C", "B"})
	assert.Equal(t, []string{"C"}, missing)
	assert.Equal(t, []string{"Base", "B"}, sel.Strategies)
	assert.Equal(t, m.Cost[1], sel.Cost[0])

	sel.Cost[0][0] = 0
	assert.Equal(t, 5000.0, m.Cost[1][0])
}
