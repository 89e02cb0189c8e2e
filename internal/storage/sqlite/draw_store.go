package sqlite

import (
	"context"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// DrawStore implements storage.DrawStore using SQLite.
type DrawStore struct {
	db *DB
}

// NewDrawStore creates a new DrawStore.
func NewDrawStore(db *DB) *DrawStore {
	return &DrawStore{db: db}
}

// Compile-time interface check.
var _ storage.DrawStore = (*DrawStore)(nil)

// InsertBulk adds draws for a run atomically. Fails entire batch on any duplicate.
func (s *DrawStore) InsertBulk(ctx context.Context, runID string, records []domain.DrawRecord) (err error) {
	defer observe("psa_draws_insert", time.Now(), &err)

	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if r.Strategy == "" || !r.Perspective.IsValid() {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO psa_draws (run_id, perspective, strategy, draw, cost, effect)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, runID, string(r.Perspective), r.Strategy, r.Draw, r.Cost, r.Effect)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert draw in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all draws of a run, ordered by perspective, strategy, draw.
func (s *DrawStore) GetByRun(ctx context.Context, runID string) (_ []domain.DrawRecord, err error) {
	defer observe("psa_draws_get", time.Now(), &err)

	rows, err := s.db.sqlDB.QueryContext(ctx, `
		SELECT perspective, strategy, draw, cost, effect
		FROM psa_draws
		WHERE run_id = ?
		ORDER BY perspective ASC, strategy ASC, draw ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query draws by run: %w", err)
	}
	defer rows.Close()

	var records []domain.DrawRecord
	for rows.Next() {
		var r domain.DrawRecord
		var perspective string
		if err := rows.Scan(&perspective, &r.Strategy, &r.Draw, &r.Cost, &r.Effect); err != nil {
			return nil, fmt.Errorf("scan draw row: %w", err)
		}
		r.Perspective = domain.Perspective(perspective)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draw rows: %w", err)
	}
	return records, nil
}
