package postgres

import (
	"context"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// ThresholdStore implements storage.ThresholdStore using PostgreSQL.
type ThresholdStore struct {
	pool *Pool
}

// NewThresholdStore creates a new ThresholdStore.
func NewThresholdStore(pool *Pool) *ThresholdStore {
	return &ThresholdStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ThresholdStore = (*ThresholdStore)(nil)

// InsertBulk adds rows atomically. Fails entire batch on any duplicate.
func (s *ThresholdStore) InsertBulk(ctx context.Context, points []domain.ThresholdPoint) (err error) {
	defer observe("cea_thresholds_insert", time.Now(), &err)

	if len(points) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cea_thresholds (
			run_id, perspective, lambda,
			frontier_strategy, frontier_prob, frontier_nmb,
			evpi, population_evpi,
			vbp, vbp_competitor, current_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	for _, p := range points {
		_, err := tx.Exec(ctx, query,
			p.RunID, string(p.Perspective), p.Lambda,
			p.FrontierStrategy, p.FrontierProb, p.FrontierNMB,
			p.EVPI, p.PopulationEVPI,
			p.VBP, p.VBPCompetitor, p.CurrentPrice,
		)
		if err != nil {
			return storeError("insert threshold point in bulk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves rows of a run and perspective, ordered by lambda.
func (s *ThresholdStore) GetByRun(ctx context.Context, runID string, p domain.Perspective) (_ []domain.ThresholdPoint, err error) {
	defer observe("cea_thresholds_get", time.Now(), &err)

	query := `
		SELECT
			run_id, perspective, lambda,
			frontier_strategy, frontier_prob, frontier_nmb,
			evpi, population_evpi,
			vbp, vbp_competitor, current_price
		FROM cea_thresholds
		WHERE run_id = $1 AND perspective = $2
		ORDER BY lambda ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, string(p))
	if err != nil {
		return nil, fmt.Errorf("get threshold points: %w", err)
	}
	defer rows.Close()

	var points []domain.ThresholdPoint
	for rows.Next() {
		var t domain.ThresholdPoint
		var perspective string
		err := rows.Scan(
			&t.RunID, &perspective, &t.Lambda,
			&t.FrontierStrategy, &t.FrontierProb, &t.FrontierNMB,
			&t.EVPI, &t.PopulationEVPI,
			&t.VBP, &t.VBPCompetitor, &t.CurrentPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("scan threshold row: %w", err)
		}
		t.Perspective = domain.Perspective(perspective)
		points = append(points, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threshold rows: %w", err)
	}
	return points, nil
}
