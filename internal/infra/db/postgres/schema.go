package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS epub_checks (
  id                TEXT PRIMARY KEY,
  tenant_id         TEXT NOT NULL,
  triggered_at      TIMESTAMPTZ NOT NULL,
  package           TEXT NOT NULL DEFAULT '',
  status            TEXT NOT NULL,
  fatal             INTEGER NOT NULL DEFAULT 0,
  error             INTEGER NOT NULL DEFAULT 0,
  warning           INTEGER NOT NULL DEFAULT 0,
  info              INTEGER NOT NULL DEFAULT 0,
  usage_count       INTEGER NOT NULL DEFAULT 0,
  findings_total    INTEGER NOT NULL DEFAULT 0,
  output            TEXT NOT NULL DEFAULT '',
  exit_code         INTEGER NOT NULL DEFAULT 0,
  duration_ms       BIGINT NOT NULL DEFAULT 0,
  epubcheck_version TEXT NOT NULL DEFAULT '',
  artifact_url      TEXT NOT NULL DEFAULT '',
  locale            TEXT NOT NULL DEFAULT '',
  usage_enabled     BOOLEAN NOT NULL DEFAULT FALSE,
  source            TEXT NOT NULL DEFAULT '',
  metadata_json     TEXT NOT NULL DEFAULT '{}'
)`,
	`CREATE INDEX IF NOT EXISTS idx_checks_tenant_time ON epub_checks (tenant_id, triggered_at)`,
	`CREATE TABLE IF NOT EXISTS epub_check_diagnostics (
  check_id  TEXT NOT NULL,
  tenant_id TEXT NOT NULL,
  seq       INTEGER NOT NULL,
  code      TEXT NOT NULL,
  severity  TEXT NOT NULL,
  rule      TEXT NOT NULL DEFAULT '',
  path      TEXT NOT NULL,
  line_no   INTEGER NOT NULL DEFAULT 0,
  col_no    INTEGER NOT NULL DEFAULT 0,
  message   TEXT NOT NULL,
  display   TEXT NOT NULL,
  PRIMARY KEY (check_id, seq)
)`,
	`CREATE TABLE IF NOT EXISTS epub_check_errors (
  id           BIGSERIAL PRIMARY KEY,
  tenant_id    TEXT NOT NULL,
  check_id     TEXT NOT NULL,
  package      TEXT NOT NULL,
  phase        TEXT NOT NULL,
  message      TEXT NOT NULL,
  details_json TEXT NOT NULL,
  created_at   TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS epub_check_advice (
  id          TEXT PRIMARY KEY,
  tenant_id   TEXT NOT NULL,
  check_id    TEXT NOT NULL,
  model       TEXT NOT NULL,
  result_json TEXT NOT NULL,
  created_at  TIMESTAMPTZ NOT NULL
)`,
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
