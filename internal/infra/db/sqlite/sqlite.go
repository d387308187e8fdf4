// Package sqlite keeps the local check history of the command line tool.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bryanwahyu/automaton-epub/internal/infra/db/sqlstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS epub_checks (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	triggered_at DATETIME NOT NULL,
	package TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	fatal INTEGER NOT NULL DEFAULT 0,
	error INTEGER NOT NULL DEFAULT 0,
	warning INTEGER NOT NULL DEFAULT 0,
	info INTEGER NOT NULL DEFAULT 0,
	usage_count INTEGER NOT NULL DEFAULT 0,
	findings_total INTEGER NOT NULL DEFAULT 0,
	output TEXT NOT NULL DEFAULT '',
	exit_code INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	epubcheck_version TEXT NOT NULL DEFAULT '',
	artifact_url TEXT NOT NULL DEFAULT '',
	locale TEXT NOT NULL DEFAULT '',
	usage_enabled BOOLEAN NOT NULL DEFAULT 0,
	source TEXT NOT NULL DEFAULT '',
	metadata_json TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_checks_tenant_time ON epub_checks (tenant_id, triggered_at);

CREATE TABLE IF NOT EXISTS epub_check_diagnostics (
	check_id TEXT NOT NULL,
	tenant_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	code TEXT NOT NULL,
	severity TEXT NOT NULL,
	rule TEXT NOT NULL DEFAULT '',
	path TEXT NOT NULL,
	line_no INTEGER NOT NULL DEFAULT 0,
	col_no INTEGER NOT NULL DEFAULT 0,
	message TEXT NOT NULL,
	display TEXT NOT NULL,
	PRIMARY KEY (check_id, seq)
);

CREATE TABLE IF NOT EXISTS epub_check_errors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id TEXT NOT NULL,
	check_id TEXT NOT NULL,
	package TEXT NOT NULL,
	phase TEXT NOT NULL,
	message TEXT NOT NULL,
	details_json TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS epub_check_advice (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	check_id TEXT NOT NULL,
	model TEXT NOT NULL,
	result_json TEXT NOT NULL,
	created_at DATETIME NOT NULL
);`

// Open opens or creates the history database at path and migrates it.
// ":memory:" gives a throwaway database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// single writer; also keeps a :memory: database on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// Repositories wires the shared repositories with SQLite syntax.
func Repositories(db *sql.DB) sqlstore.Repositories {
	return sqlstore.NewRepositories(db, sqlstore.SQLite)
}
