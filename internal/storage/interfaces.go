package storage

import (
	"context"

	"trd-cea-lab/internal/domain"
)

// DrawStore provides access to simulated draw records of a run.
type DrawStore interface {
	// InsertBulk adds draws for a run atomically. Returns ErrDuplicateKey if any
	// (run_id, perspective, strategy, draw) already exists or repeats in the batch.
	InsertBulk(ctx context.Context, runID string, records []domain.DrawRecord) error

	// GetByRun retrieves all draws of a run, ordered by perspective, strategy, draw.
	GetByRun(ctx context.Context, runID string) ([]domain.DrawRecord, error)
}

// ParameterSampleStore provides access to the sampled PSA parameters of a run.
type ParameterSampleStore interface {
	// InsertBulk adds samples atomically. Returns ErrDuplicateKey if any
	// (run_id, draw, name) already exists or repeats in the batch.
	InsertBulk(ctx context.Context, runID string, samples []domain.ParameterSample) error

	// GetByRun retrieves all samples of a run, ordered by draw, name.
	GetByRun(ctx context.Context, runID string) ([]domain.ParameterSample, error)
}

// AnalysisRunStore provides access to run metadata.
type AnalysisRunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.AnalysisRun) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.AnalysisRun, error)

	// GetAll retrieves all runs ordered by created_at, run_id.
	GetAll(ctx context.Context) ([]*domain.AnalysisRun, error)
}

// CurveStore provides access to acceptability curve rows.
type CurveStore interface {
	// InsertBulk adds rows atomically. Returns ErrDuplicateKey if any
	// (run_id, perspective, lambda, strategy) already exists.
	InsertBulk(ctx context.Context, points []domain.CurvePoint) error

	// GetByRun retrieves rows of a run and perspective, ordered by lambda, strategy.
	GetByRun(ctx context.Context, runID string, p domain.Perspective) ([]domain.CurvePoint, error)
}

// ThresholdStore provides access to per-lambda frontier, EVPI and price rows.
type ThresholdStore interface {
	// InsertBulk adds rows atomically. Returns ErrDuplicateKey if any
	// (run_id, perspective, lambda) already exists.
	InsertBulk(ctx context.Context, points []domain.ThresholdPoint) error

	// GetByRun retrieves rows of a run and perspective, ordered by lambda.
	GetByRun(ctx context.Context, runID string, p domain.Perspective) ([]domain.ThresholdPoint, error)
}

// SensitivityStore provides access to PRCC rows.
type SensitivityStore interface {
	// InsertBulk adds rows atomically. Returns ErrDuplicateKey if any
	// (run_id, perspective, comparator, parameter) already exists.
	InsertBulk(ctx context.Context, rows []domain.SensitivityRow) error

	// GetByRun retrieves rows of a run and perspective, ordered by
	// comparator, rank.
	GetByRun(ctx context.Context, runID string, p domain.Perspective) ([]domain.SensitivityRow, error)
}
