package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

func TestAnalysisRunStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewAnalysisRunStore(pool)

	run := &domain.AnalysisRun{
		RunID:        "run-big-seed",
		ConfigHash:   "abc",
		Jurisdiction: "NZ",
		Seed:         ^uint64(0) - 7, // above MaxInt64
		Draws:        1000,
		CreatedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, run.RunID)
	require.NoError(t, err)
	assert.Equal(t, run.Seed, got.Seed)
	assert.Equal(t, run.Jurisdiction, got.Jurisdiction)
	assert.Equal(t, run.Draws, got.Draws)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))

	err = store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	createTestRun(t, ctx, pool, "run-early")
	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "run-early", all[0].RunID)
}

func TestCurveStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	runID := createTestRun(t, ctx, pool, "curve-run")
	store := NewCurveStore(pool)

	points := []domain.CurvePoint{
		{RunID: runID, Perspective: domain.PerspectiveHealthSystem, Lambda: 50000, Strategy: "B", ExpectedNMB: 29000, ProbOptimal: 0},
		{RunID: runID, Perspective: domain.PerspectiveHealthSystem, Lambda: 50000, Strategy: "A", ExpectedNMB: 33000, ProbOptimal: 1, OnFrontier: true},
		{RunID: runID, Perspective: domain.PerspectiveHealthSystem, Lambda: 0, Strategy: "Base", ExpectedNMB: -5000, ProbOptimal: 1, OnFrontier: true},
		{RunID: runID, Perspective: domain.PerspectiveSocietal, Lambda: 0, Strategy: "Base", ExpectedNMB: -7000, ProbOptimal: 1, OnFrontier: true},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByRun(ctx, runID, domain.PerspectiveHealthSystem)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Base", got[0].Strategy)
	assert.Equal(t, "A", got[1].Strategy)
	assert.True(t, got[1].OnFrontier)
	assert.InDelta(t, 33000, got[1].ExpectedNMB, 1e-9)

	err = store.InsertBulk(ctx, points[:1])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestCurveStore_BulkIsAtomic(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	runID := createTestRun(t, ctx, pool, "atomic-run")
	store := NewCurveStore(pool)

	points := []domain.CurvePoint{
		{RunID: runID, Perspective: domain.PerspectiveSocietal, Lambda: 0, Strategy: "A"},
		{RunID: runID, Perspective: domain.PerspectiveSocietal, Lambda: 0, Strategy: "A"},
	}
	err := store.InsertBulk(ctx, points)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	got, err := store.GetByRun(ctx, runID, domain.PerspectiveSocietal)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestThresholdStore_NullablePrice(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	runID := createTestRun(t, ctx, pool, "threshold-run")
	store := NewThresholdStore(pool)

	points := []domain.ThresholdPoint{
		{
			RunID: runID, Perspective: domain.PerspectiveHealthSystem, Lambda: 50000,
			FrontierStrategy: "A", FrontierProb: 1, FrontierNMB: 33000,
			EVPI: 0, PopulationEVPI: 0,
			VBP: ptr(4100.0), VBPCompetitor: "B", CurrentPrice: ptr(100.0),
		},
		{
			RunID: runID, Perspective: domain.PerspectiveHealthSystem, Lambda: 0,
			FrontierStrategy: "Base", FrontierProb: 1, FrontierNMB: -5000,
		},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetByRun(ctx, runID, domain.PerspectiveHealthSystem)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Nil(t, got[0].VBP)
	assert.Nil(t, got[0].CurrentPrice)
	require.NotNil(t, got[1].VBP)
	assert.InDelta(t, 4100, *got[1].VBP, 1e-9)
	assert.Equal(t, "B", got[1].VBPCompetitor)
}

func TestSensitivityStore_InsertBulkAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	runID := createTestRun(t, ctx, pool, "prcc-run")
	store := NewSensitivityStore(pool)

	rows := []domain.SensitivityRow{
		{RunID: runID, Perspective: domain.PerspectiveHealthSystem, Base: "UsualCare", Comparator: "ECT", Lambda: 50000, Parameter: "ECT.remission", PRCC: 0.91, PValue: 0.001, Rank: 1, N: 500},
		{RunID: runID, Perspective: domain.PerspectiveHealthSystem, Base: "UsualCare", Comparator: "ECT", Lambda: 50000, Parameter: "ECT.acute_cost", PRCC: -0.4, PValue: 0.02, Rank: 2, N: 500},
	}
	require.NoError(t, store.InsertBulk(ctx, rows))

	got, err := store.GetByRun(ctx, runID, domain.PerspectiveHealthSystem)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ECT.remission", got[0].Parameter)
	assert.Equal(t, 500, got[1].N)

	err = store.InsertBulk(ctx, rows[1:])
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
