package storage

import "errors"

// Sentinel errors shared by the memory, SQLite, PostgreSQL and ClickHouse
// backends. Backends translate driver errors into these so commands can
// test them with errors.Is.
var (
	// ErrNotFound means no analysis run or result row matches the key.
	ErrNotFound = errors.New("storage: record not found")

	// ErrDuplicateKey means the key is already stored. Runs, draws and
	// result rows are written once per run id and never updated, so a
	// rerun of the same run id reports this instead of overwriting.
	ErrDuplicateKey = errors.New("storage: already stored for this run")

	// ErrInvalidInput means a record is missing its run id, strategy,
	// parameter name or perspective.
	ErrInvalidInput = errors.New("storage: record missing key fields")
)
