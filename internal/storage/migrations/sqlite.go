package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// RunSQLiteMigrations applies each embedded SQLite file at most once,
// recording applied files in schema_migrations.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	const ensure = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)
	`
	if _, err := db.ExecContext(ctx, ensure); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	files, err := load(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, m := range files {
		var applied int
		err := db.QueryRowContext(ctx,
			`SELECT count(*) FROM schema_migrations WHERE name = ?`, m.name,
		).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", m.name, err)
		}
		if applied > 0 {
			continue
		}
		if err := validateNoSemicolonInStrings(m.sql); err != nil {
			return fmt.Errorf("validate migration %s: %w", m.name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", m.name, err)
		}
		for _, stmt := range splitStatements(m.sql) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("apply migration %s: %w", m.name, err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			m.name, time.Now().UTC().UnixMilli(),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", m.name, err)
		}
	}
	return nil
}
