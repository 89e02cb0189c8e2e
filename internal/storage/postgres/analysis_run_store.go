package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// AnalysisRunStore implements storage.AnalysisRunStore using PostgreSQL.
type AnalysisRunStore struct {
	pool *Pool
}

// NewAnalysisRunStore creates a new AnalysisRunStore.
func NewAnalysisRunStore(pool *Pool) *AnalysisRunStore {
	return &AnalysisRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
// Seeds are stored as the two's-complement BIGINT of the uint64 value.
func (s *AnalysisRunStore) Insert(ctx context.Context, r *domain.AnalysisRun) (err error) {
	defer observe("analysis_runs_insert", time.Now(), &err)

	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO analysis_runs (
			run_id, config_hash, jurisdiction, seed, draws, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.ConfigHash,
		r.Jurisdiction,
		int64(r.Seed),
		r.Draws,
		createdAt,
	)
	if err != nil {
		return storeError("insert analysis run", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(ctx context.Context, runID string) (_ *domain.AnalysisRun, err error) {
	defer observe("analysis_runs_get", time.Now(), &err)

	query := `
		SELECT run_id, config_hash, jurisdiction, seed, draws, created_at
		FROM analysis_runs
		WHERE run_id = $1
	`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		return nil, storeError("get analysis run", err)
	}
	return r, nil
}

// GetAll retrieves all runs ordered by created_at, run_id.
func (s *AnalysisRunStore) GetAll(ctx context.Context) (_ []*domain.AnalysisRun, err error) {
	defer observe("analysis_runs_list", time.Now(), &err)

	query := `
		SELECT run_id, config_hash, jurisdiction, seed, draws, created_at
		FROM analysis_runs
		ORDER BY created_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list analysis runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.AnalysisRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analysis run rows: %w", err)
	}
	return runs, nil
}

// scanRun scans a single row into an AnalysisRun.
func scanRun(row pgx.Row) (*domain.AnalysisRun, error) {
	var r domain.AnalysisRun
	var seed int64

	err := row.Scan(
		&r.RunID,
		&r.ConfigHash,
		&r.Jurisdiction,
		&seed,
		&r.Draws,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Seed = uint64(seed)
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}
