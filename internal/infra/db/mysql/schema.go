package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS epub_checks (
  id                VARCHAR(64)  NOT NULL PRIMARY KEY,
  tenant_id         VARCHAR(64)  NOT NULL,
  triggered_at      DATETIME(6)  NOT NULL,
  package           VARCHAR(255) NOT NULL DEFAULT '',
  status            VARCHAR(16)  NOT NULL,
  fatal             INT NOT NULL DEFAULT 0,
  error             INT NOT NULL DEFAULT 0,
  warning           INT NOT NULL DEFAULT 0,
  info              INT NOT NULL DEFAULT 0,
  usage_count       INT NOT NULL DEFAULT 0,
  findings_total    INT NOT NULL DEFAULT 0,
  output            MEDIUMTEXT NOT NULL,
  exit_code         INT NOT NULL DEFAULT 0,
  duration_ms       BIGINT NOT NULL DEFAULT 0,
  epubcheck_version VARCHAR(32)  NOT NULL DEFAULT '',
  artifact_url      VARCHAR(1024) NOT NULL DEFAULT '',
  locale            VARCHAR(16)  NOT NULL DEFAULT '',
  usage_enabled     TINYINT(1)   NOT NULL DEFAULT 0,
  source            VARCHAR(64)  NOT NULL DEFAULT '',
  metadata_json     JSON NOT NULL,
  KEY idx_checks_tenant_time (tenant_id, triggered_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS epub_check_diagnostics (
  check_id  VARCHAR(64) NOT NULL,
  tenant_id VARCHAR(64) NOT NULL,
  seq       INT NOT NULL,
  code      VARCHAR(64) NOT NULL,
  severity  VARCHAR(16) NOT NULL,
  rule      VARCHAR(32) NOT NULL DEFAULT '',
  path      VARCHAR(1024) NOT NULL,
  line_no   INT NOT NULL DEFAULT 0,
  col_no    INT NOT NULL DEFAULT 0,
  message   TEXT NOT NULL,
  display   TEXT NOT NULL,
  PRIMARY KEY (check_id, seq),
  KEY idx_diag_tenant (tenant_id, check_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS epub_check_errors (
  id           BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
  tenant_id    VARCHAR(64) NOT NULL,
  check_id     VARCHAR(64) NOT NULL,
  package      VARCHAR(255) NOT NULL,
  phase        VARCHAR(16) NOT NULL,
  message      TEXT NOT NULL,
  details_json JSON NOT NULL,
  created_at   DATETIME(6) NOT NULL,
  KEY idx_errors_check (tenant_id, check_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS epub_check_advice (
  id          VARCHAR(64) NOT NULL PRIMARY KEY,
  tenant_id   VARCHAR(64) NOT NULL,
  check_id    VARCHAR(64) NOT NULL,
  model       VARCHAR(64) NOT NULL,
  result_json MEDIUMTEXT NOT NULL,
  created_at  DATETIME(6) NOT NULL,
  KEY idx_advice_check (tenant_id, check_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
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
