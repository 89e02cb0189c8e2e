package postgres

import (
	"context"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// CurveStore implements storage.CurveStore using PostgreSQL.
type CurveStore struct {
	pool *Pool
}

// NewCurveStore creates a new CurveStore.
func NewCurveStore(pool *Pool) *CurveStore {
	return &CurveStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CurveStore = (*CurveStore)(nil)

// InsertBulk adds rows atomically. Fails entire batch on any duplicate.
func (s *CurveStore) InsertBulk(ctx context.Context, points []domain.CurvePoint) (err error) {
	defer observe("cea_curves_insert", time.Now(), &err)

	if len(points) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO cea_curves (
			run_id, perspective, lambda, strategy, expected_nmb, prob_optimal, on_frontier
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, p := range points {
		_, err := tx.Exec(ctx, query,
			p.RunID,
			string(p.Perspective),
			p.Lambda,
			p.Strategy,
			p.ExpectedNMB,
			p.ProbOptimal,
			p.OnFrontier,
		)
		if err != nil {
			return storeError("insert curve point in bulk", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves rows of a run and perspective, ordered by lambda, strategy.
func (s *CurveStore) GetByRun(ctx context.Context, runID string, p domain.Perspective) (_ []domain.CurvePoint, err error) {
	defer observe("cea_curves_get", time.Now(), &err)

	query := `
		SELECT run_id, perspective, lambda, strategy, expected_nmb, prob_optimal, on_frontier
		FROM cea_curves
		WHERE run_id = $1 AND perspective = $2
		ORDER BY lambda ASC, strategy ASC
	`

	rows, err := s.pool.Query(ctx, query, runID, string(p))
	if err != nil {
		return nil, fmt.Errorf("get curve points: %w", err)
	}
	defer rows.Close()

	var points []domain.CurvePoint
	for rows.Next() {
		var c domain.CurvePoint
		var perspective string
		err := rows.Scan(
			&c.RunID,
			&perspective,
			&c.Lambda,
			&c.Strategy,
			&c.ExpectedNMB,
			&c.ProbOptimal,
			&c.OnFrontier,
		)
		if err != nil {
			return nil, fmt.Errorf("scan curve row: %w", err)
		}
		c.Perspective = domain.Perspective(perspective)
		points = append(points, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate curve rows: %w", err)
	}
	return points, nil
}
