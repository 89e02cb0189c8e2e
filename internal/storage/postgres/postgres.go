// Package postgres stores analysis runs and their result rows (curves,
// thresholds and PRCC tables) in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trd-cea-lab/internal/observability"
	"trd-cea-lab/internal/storage"
)

const applicationName = "trd-cea-lab"

// Pool is the connection pool shared by the result stores.
type Pool struct {
	*pgxpool.Pool
}

// NewPool connects to dsn and pings the server. Connections identify
// themselves as trd-cea-lab unless the DSN names an application.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if _, ok := config.ConnConfig.RuntimeParams["application_name"]; !ok {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

const pgErrUniqueViolation = "23505"

// storeError maps a unique violation to storage.ErrDuplicateKey and a
// missing row to storage.ErrNotFound; anything else is wrapped with what.
func storeError(what string, err error) error {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation:
		return storage.ErrDuplicateKey
	case errors.Is(err, pgx.ErrNoRows):
		return storage.ErrNotFound
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// observe records the duration and outcome of one store operation.
func observe(operation string, start time.Time, errp *error) {
	observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), *errp)
}
