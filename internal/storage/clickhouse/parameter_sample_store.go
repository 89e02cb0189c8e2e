package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// ParameterSampleStore implements storage.ParameterSampleStore using ClickHouse.
type ParameterSampleStore struct {
	conn *Conn
}

// NewParameterSampleStore creates a new ParameterSampleStore.
func NewParameterSampleStore(conn *Conn) *ParameterSampleStore {
	return &ParameterSampleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ParameterSampleStore = (*ParameterSampleStore)(nil)

// InsertBulk adds samples for a run. Fails entire batch on duplicate (run_id, draw, name).
func (s *ParameterSampleStore) InsertBulk(ctx context.Context, runID string, samples []domain.ParameterSample) (err error) {
	defer observe("psa_parameters_insert", time.Now(), &err)

	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(samples) == 0 {
		return nil
	}

	type key struct {
		draw uint32
		name string
	}
	seen := make(map[key]struct{}, len(samples))
	for _, p := range samples {
		if p.Name == "" || p.Draw < 0 {
			return storage.ErrInvalidInput
		}
		k := key{uint32(p.Draw), p.Name}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	rows, err := s.conn.Query(ctx, `
		SELECT draw, name
		FROM psa_parameters
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.draw, &k.name); err != nil {
			rows.Close()
			return fmt.Errorf("scan existing key: %w", err)
		}
		if _, dup := seen[k]; dup {
			rows.Close()
			return storage.ErrDuplicateKey
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate existing keys: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO psa_parameters (run_id, draw, name, value)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range samples {
		if err := batch.Append(runID, uint32(p.Draw), p.Name, p.Value); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all samples of a run, ordered by draw, name.
func (s *ParameterSampleStore) GetByRun(ctx context.Context, runID string) (_ []domain.ParameterSample, err error) {
	defer observe("psa_parameters_get", time.Now(), &err)

	query := `
		SELECT draw, name, value
		FROM psa_parameters
		WHERE run_id = ?
		ORDER BY draw ASC, name ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query parameters by run: %w", err)
	}
	defer rows.Close()

	var samples []domain.ParameterSample
	for rows.Next() {
		var (
			draw uint32
			p    domain.ParameterSample
		)
		if err := rows.Scan(&draw, &p.Name, &p.Value); err != nil {
			return nil, fmt.Errorf("scan parameter row: %w", err)
		}
		p.Draw = int(draw)
		samples = append(samples, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parameter rows: %w", err)
	}
	return samples, nil
}
