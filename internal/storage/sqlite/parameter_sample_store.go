package sqlite

import (
	"context"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// ParameterSampleStore implements storage.ParameterSampleStore using SQLite.
type ParameterSampleStore struct {
	db *DB
}

// NewParameterSampleStore creates a new ParameterSampleStore.
func NewParameterSampleStore(db *DB) *ParameterSampleStore {
	return &ParameterSampleStore{db: db}
}

// Compile-time interface check.
var _ storage.ParameterSampleStore = (*ParameterSampleStore)(nil)

// InsertBulk adds samples atomically. Fails entire batch on any duplicate.
func (s *ParameterSampleStore) InsertBulk(ctx context.Context, runID string, samples []domain.ParameterSample) (err error) {
	defer observe("psa_parameters_insert", time.Now(), &err)

	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO psa_parameters (run_id, draw, name, value) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range samples {
		if p.Name == "" {
			return storage.ErrInvalidInput
		}
		if _, err := stmt.ExecContext(ctx, runID, p.Draw, p.Name, p.Value); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert parameter in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByRun retrieves all samples of a run, ordered by draw, name.
func (s *ParameterSampleStore) GetByRun(ctx context.Context, runID string) (_ []domain.ParameterSample, err error) {
	defer observe("psa_parameters_get", time.Now(), &err)

	rows, err := s.db.sqlDB.QueryContext(ctx, `
		SELECT draw, name, value
		FROM psa_parameters
		WHERE run_id = ?
		ORDER BY draw ASC, name ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query parameters by run: %w", err)
	}
	defer rows.Close()

	var samples []domain.ParameterSample
	for rows.Next() {
		var p domain.ParameterSample
		if err := rows.Scan(&p.Draw, &p.Name, &p.Value); err != nil {
			return nil, fmt.Errorf("scan parameter row: %w", err)
		}
		samples = append(samples, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parameter rows: %w", err)
	}
	return samples, nil
}
