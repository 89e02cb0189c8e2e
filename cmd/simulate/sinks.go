package main

import (
	"context"
	"errors"
	"fmt"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/storage"
	chstore "trd-cea-lab/internal/storage/clickhouse"
	"trd-cea-lab/internal/storage/memory"
	"trd-cea-lab/internal/storage/migrations"
	pgstore "trd-cea-lab/internal/storage/postgres"
	sqlitestore "trd-cea-lab/internal/storage/sqlite"
)

// sinks are the stores a simulation is persisted to.
type sinks struct {
	runs     []storage.AnalysisRunStore
	draws    []storage.DrawStore
	params   []storage.ParameterSampleStore
	closer   []func()
	inMemory bool
}

// openSinks connects every configured store. With none configured the run
// is kept in memory stores for the lifetime of the command.
func openSinks(ctx context.Context, opts runOptions) (*sinks, error) {
	s := &sinks{}

	// ClickHouse for the draw table and parameter trace
	if opts.clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
		if err != nil {
			return nil, fmt.Errorf("clickhouse: %w", err)
		}
		s.closer = append(s.closer, func() { conn.Close() })
		s.draws = append(s.draws, chstore.NewDrawStore(conn))
		s.params = append(s.params, chstore.NewParameterSampleStore(conn))
	}

	// PostgreSQL for run metadata
	if opts.postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("postgres: %w", err)
		}
		s.closer = append(s.closer, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			s.close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		s.runs = append(s.runs, pgstore.NewAnalysisRunStore(pool))
	}

	// SQLite keeps everything in one local file
	if opts.sqlitePath != "" {
		db, err := sqlitestore.Open(ctx, opts.sqlitePath)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("sqlite: %w", err)
		}
		s.closer = append(s.closer, func() { db.Close() })
		s.runs = append(s.runs, sqlitestore.NewAnalysisRunStore(db))
		s.draws = append(s.draws, sqlitestore.NewDrawStore(db))
		s.params = append(s.params, sqlitestore.NewParameterSampleStore(db))
	}

	if len(s.runs) == 0 && len(s.draws) == 0 && len(s.params) == 0 {
		s = memorySinks()
	}
	return s, nil
}

func memorySinks() *sinks {
	return &sinks{
		runs:     []storage.AnalysisRunStore{memory.NewAnalysisRunStore()},
		draws:    []storage.DrawStore{memory.NewDrawStore()},
		params:   []storage.ParameterSampleStore{memory.NewParameterSampleStore()},
		inMemory: true,
	}
}

// persist writes the draw table and parameter trace before the run record,
// so a run row is only present once its rows are. A sink that already holds
// the rows reports ErrDuplicateKey and counts as stored. Returns the number
// of inserts that added new rows; zero means the run was stored before.
func (s *sinks) persist(ctx context.Context, r *domain.AnalysisRun, records []domain.DrawRecord, samples []domain.ParameterSample) (int, error) {
	fresh := 0
	for _, store := range s.draws {
		if err := countInsert(store.InsertBulk(ctx, r.RunID, records), &fresh); err != nil {
			return fresh, fmt.Errorf("draws: %w", err)
		}
	}
	for _, store := range s.params {
		if err := countInsert(store.InsertBulk(ctx, r.RunID, samples), &fresh); err != nil {
			return fresh, fmt.Errorf("parameters: %w", err)
		}
	}
	for _, store := range s.runs {
		if err := countInsert(store.Insert(ctx, r), &fresh); err != nil {
			return fresh, fmt.Errorf("run: %w", err)
		}
	}
	return fresh, nil
}

func countInsert(err error, fresh *int) error {
	switch {
	case err == nil:
		*fresh++
		return nil
	case errors.Is(err, storage.ErrDuplicateKey):
		return nil
	default:
		return err
	}
}

func (s *sinks) close() {
	for i := len(s.closer) - 1; i >= 0; i-- {
		s.closer[i]()
	}
}
