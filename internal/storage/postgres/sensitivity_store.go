package postgres

import (
	"context"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// SensitivityStore implements storage.SensitivityStore using PostgreSQL.
type SensitivityStore struct {
	pool *Pool
}

// NewSensitivityStore creates a new SensitivityStore.
func NewSensitivityStore(pool *Pool) *SensitivityStore {
	return &SensitivityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SensitivityStore = (*SensitivityStore)(nil)

// InsertBulk adds rows atomically. Fails entire batch on any duplicate.
func (s *SensitivityStore) InsertBulk(ctx context.Context, rows []domain.SensitivityRow) (err error) {
	defer observe("prcc_results_insert", time.Now(), &err)

	if len(rows) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO prcc_results (
			run_id, perspective, base, comparator, lambda, parameter, prcc, p_value, rank, n
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for _, r := range rows {
		_, err := tx.Exec(ctx, query,
			r.RunID,
			string(r.Perspective),
			r.Base,
			r.Comparator,
			r.Lambda,
			r.Parameter,
			r.PRCC,
			r.PValue,
			r.Rank,
			r.N,
		)
		if err != nil {
			return storeError("insert prcc row in bulk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves rows of a run and perspective, ordered by comparator, rank.
func (s *SensitivityStore) GetByRun(ctx context.Context, runID string, p domain.Perspective) (_ []domain.SensitivityRow, err error) {
	defer observe("prcc_results_get", time.Now(), &err)

	query := `
		SELECT run_id, perspective, base, comparator, lambda, parameter, prcc, p_value, rank, n
		FROM prcc_results
		WHERE run_id = $1 AND perspective = $2
		ORDER BY comparator ASC, rank ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, string(p))
	if err != nil {
		return nil, fmt.Errorf("get prcc rows: %w", err)
	}
	defer rows.Close()

	var out []domain.SensitivityRow
	for rows.Next() {
		var r domain.SensitivityRow
		var perspective string
		err := rows.Scan(
			&r.RunID,
			&perspective,
			&r.Base,
			&r.Comparator,
			&r.Lambda,
			&r.Parameter,
			&r.PRCC,
			&r.PValue,
			&r.Rank,
			&r.N,
		)
		if err != nil {
			return nil, fmt.Errorf("scan prcc row: %w", err)
		}
		r.Perspective = domain.Perspective(perspective)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prcc rows: %w", err)
	}
	return out, nil
}
