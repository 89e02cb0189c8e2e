package migrations

import (
	"embed"
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x Int32);

CREATE TABLE b (
    y String -- trailing
);
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if !strings.HasPrefix(stmts[0], "CREATE TABLE a") {
		t.Errorf("unexpected first statement: %q", stmts[0])
	}
	if !strings.Contains(stmts[1], "y String") {
		t.Errorf("unexpected second statement: %q", stmts[1])
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"plain", "CREATE TABLE a (x Int32);", false},
		{"quoted without semicolon", "INSERT INTO a VALUES ('x');", false},
		{"escaped quote", "INSERT INTO a VALUES ('it''s');", false},
		{"semicolon in literal", "INSERT INTO a VALUES ('a;b');", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateNoSemicolonInStrings(tt.sql)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateNoSemicolonInStrings() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmbeddedMigrationsLoad(t *testing.T) {
	for _, tc := range []struct {
		dir  string
		fsys embed.FS
	}{
		{"postgres", PostgresFS},
		{"clickhouse", ClickhouseFS},
		{"sqlite", SQLiteFS},
	} {
		files, err := load(tc.fsys, tc.dir)
		if err != nil {
			t.Fatalf("load %s: %v", tc.dir, err)
		}
		if len(files) == 0 {
			t.Errorf("no %s migrations embedded", tc.dir)
		}
		for _, m := range files {
			if err := validateNoSemicolonInStrings(m.sql); err != nil {
				t.Errorf("%s/%s: %v", tc.dir, m.name, err)
			}
		}
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/psa")
	if err != nil {
		t.Fatalf("databaseFromDSN failed: %v", err)
	}
	if db != "psa" {
		t.Errorf("database = %q, want psa", db)
	}

	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for DSN without database")
	}
}
