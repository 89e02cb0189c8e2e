package clickhouse

import (
	"context"
	"fmt"
	"time"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
)

// DrawStore implements storage.DrawStore using ClickHouse.
type DrawStore struct {
	conn *Conn
}

// NewDrawStore creates a new DrawStore.
func NewDrawStore(conn *Conn) *DrawStore {
	return &DrawStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DrawStore = (*DrawStore)(nil)

type drawKey struct {
	perspective string
	strategy    string
	draw        uint32
}

// InsertBulk adds draws for a run. Fails entire batch on duplicate
// (run_id, perspective, strategy, draw).
func (s *DrawStore) InsertBulk(ctx context.Context, runID string, records []domain.DrawRecord) (err error) {
	defer observe("psa_draws_insert", time.Now(), &err)

	if runID == "" {
		return storage.ErrInvalidInput
	}
	if len(records) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	seen := make(map[drawKey]struct{}, len(records))
	for _, r := range records {
		if r.Strategy == "" || !r.Perspective.IsValid() || r.Draw < 0 {
			return storage.ErrInvalidInput
		}
		k := drawKey{string(r.Perspective), r.Strategy, uint32(r.Draw)}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// MergeTree does not enforce keys; compare against what the run already holds.
	existing, err := s.keys(ctx, runID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	for k := range seen {
		if _, exists := existing[k]; exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO psa_draws (
			run_id, perspective, strategy, draw, cost, effect
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			runID, string(r.Perspective), r.Strategy, uint32(r.Draw),
			r.Cost, r.Effect,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRun retrieves all draws of a run, ordered by perspective, strategy, draw.
func (s *DrawStore) GetByRun(ctx context.Context, runID string) (_ []domain.DrawRecord, err error) {
	defer observe("psa_draws_get", time.Now(), &err)

	query := `
		SELECT perspective, strategy, draw, cost, effect
		FROM psa_draws
		WHERE run_id = ?
		ORDER BY perspective ASC, strategy ASC, draw ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query draws by run: %w", err)
	}
	defer rows.Close()

	var records []domain.DrawRecord
	for rows.Next() {
		var (
			perspective string
			draw        uint32
			r           domain.DrawRecord
		)
		if err := rows.Scan(&perspective, &r.Strategy, &draw, &r.Cost, &r.Effect); err != nil {
			return nil, fmt.Errorf("scan draw row: %w", err)
		}
		r.Perspective = domain.Perspective(perspective)
		r.Draw = int(draw)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate draw rows: %w", err)
	}
	return records, nil
}

// keys returns the draw keys already stored for a run.
func (s *DrawStore) keys(ctx context.Context, runID string) (map[drawKey]struct{}, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT perspective, strategy, draw
		FROM psa_draws
		WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[drawKey]struct{})
	for rows.Next() {
		var k drawKey
		if err := rows.Scan(&k.perspective, &k.strategy, &k.draw); err != nil {
			return nil, err
		}
		out[k] = struct{}{}
	}
	return out, rows.Err()
}
