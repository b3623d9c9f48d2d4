package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

const documentsUp = "-- +migrate Up\nCREATE TABLE documents(uuid TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE documents;"

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		root        string
		wantApplied []string
		wantTables  []string
	}{
		{
			name:        "single file",
			files:       map[string]string{"001_documents.sql": documentsUp},
			wantApplied: []string{"001_documents.sql"},
			wantTables:  []string{"documents"},
		},
		{
			name: "sorted by file name, non-sql ignored",
			files: map[string]string{
				"002_index.sql":     "CREATE INDEX documents_kind ON documents(uuid);",
				"001_documents.sql": documentsUp,
				"README.md":         "not sql",
			},
			wantApplied: []string{"001_documents.sql", "002_index.sql"},
			wantTables:  []string{"documents"},
		},
		{
			name:        "keys include the root",
			files:       map[string]string{"flow/001_documents.sql": documentsUp},
			root:        "flow",
			wantApplied: []string{"flow/001_documents.sql"},
			wantTables:  []string{"documents"},
		},
		{
			name:        "empty up section is skipped",
			files:       map[string]string{"001_noop.sql": "-- +migrate Up\n\n-- +migrate Down\nDROP TABLE x;"},
			wantApplied: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openDB(t)
			fsys := migrationFS(tt.files)

			applied, err := Apply(context.Background(), db, fsys, tt.root)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if !slices.Equal(applied, tt.wantApplied) {
				t.Fatalf("applied = %v, want %v", applied, tt.wantApplied)
			}
			for _, table := range tt.wantTables {
				if !tableExists(t, db, table) {
					t.Fatalf("expected table %s", table)
				}
			}

			again, err := Apply(context.Background(), db, fsys, tt.root)
			if err != nil {
				t.Fatalf("replay: %v", err)
			}
			if len(again) != 0 {
				t.Fatalf("replay applied %v", again)
			}
		})
	}
}

func TestApplyLeavesFailedMigrationUnrecorded(t *testing.T) {
	db := openDB(t)

	err := ApplyMigrations(db, migrationFS(map[string]string{"001_documents.sql": "CREAT TABLE documents(uuid TEXT);"}), "")
	if err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if got := count(t, db); got != 0 {
		t.Fatalf("recorded %d migrations after failure", got)
	}

	if err := ApplyMigrations(db, migrationFS(map[string]string{"001_documents.sql": documentsUp}), ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if got := count(t, db); got != 1 {
		t.Fatalf("recorded %d migrations, want 1", got)
	}
}

func TestApplyErrors(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	fsys := migrationFS(map[string]string{"001_documents.sql": documentsUp})

	if _, err := Apply(context.Background(), nil, fsys, ""); err == nil {
		t.Fatal("expected nil db error")
	}
	if _, err := Apply(cancelled, openDB(t), fsys, ""); err == nil {
		t.Fatal("expected cancelled context error")
	}
	if _, err := Apply(context.Background(), openDB(t), fsys, "missing"); err == nil {
		t.Fatal("expected missing root error")
	}
}

func TestExtractUpMigration(t *testing.T) {
	tests := map[string]string{
		"CREATE TABLE a(id);":                                          "CREATE TABLE a(id);",
		"-- +migrate Up\nCREATE TABLE a(id);":                          "CREATE TABLE a(id);",
		"-- +migrate Up\nCREATE TABLE a(id);\n-- +migrate Down\nDROP;": "CREATE TABLE a(id);",
	}
	for content, want := range tests {
		if got := strings.TrimSpace(ExtractUpMigration(content)); got != want {
			t.Fatalf("ExtractUpMigration(%q) = %q, want %q", content, got, want)
		}
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if !IsAlreadyExistsError(errors.New("table documents already exists")) {
		t.Fatal("expected already exists match")
	}
	if !IsAlreadyExistsError(errors.New("duplicate column name: kind")) {
		t.Fatal("expected duplicate column match")
	}
	if IsAlreadyExistsError(errors.New("syntax error")) {
		t.Fatal("unexpected match")
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + migrationTable).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	return n
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("check table: %v", err)
	}
	return true
}
