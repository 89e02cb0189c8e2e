package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// AnalysisRunStore implements storage.AnalysisRunStore using SQLite.
type AnalysisRunStore struct {
	db *DB
}

// NewAnalysisRunStore creates a new AnalysisRunStore.
func NewAnalysisRunStore(db *DB) *AnalysisRunStore {
	return &AnalysisRunStore{db: db}
}

// Compile-time interface check.
var _ storage.AnalysisRunStore = (*AnalysisRunStore)(nil)

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *AnalysisRunStore) Insert(ctx context.Context, r *domain.AnalysisRun) (err error) {
	defer observe("analysis_runs_insert", time.Now(), &err)

	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.sqlDB.ExecContext(ctx, `
		INSERT INTO analysis_runs (run_id, config_hash, jurisdiction, seed, draws, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.RunID, r.ConfigHash, r.Jurisdiction, int64(r.Seed), r.Draws, toMillis(createdAt))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert analysis run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *AnalysisRunStore) GetByID(ctx context.Context, runID string) (_ *domain.AnalysisRun, err error) {
	defer observe("analysis_runs_get", time.Now(), &err)

	row := s.db.sqlDB.QueryRowContext(ctx, `
		SELECT run_id, config_hash, jurisdiction, seed, draws, created_at
		FROM analysis_runs
		WHERE run_id = ?
	`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analysis run: %w", err)
	}
	return r, nil
}

// GetAll retrieves all runs ordered by created_at, run_id.
func (s *AnalysisRunStore) GetAll(ctx context.Context) (_ []*domain.AnalysisRun, err error) {
	defer observe("analysis_runs_list", time.Now(), &err)

	rows, err := s.db.sqlDB.QueryContext(ctx, `
		SELECT run_id, config_hash, jurisdiction, seed, draws, created_at
		FROM analysis_runs
		ORDER BY created_at ASC, run_id ASC
	`)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.AnalysisRun, error) {
	var r domain.AnalysisRun
	var seed, createdAt int64
	if err := row.Scan(&r.RunID, &r.ConfigHash, &r.Jurisdiction, &seed, &r.Draws, &createdAt); err != nil {
		return nil, err
	}
	r.Seed = uint64(seed)
	r.CreatedAt = fromMillis(createdAt)
	return &r, nil
}
