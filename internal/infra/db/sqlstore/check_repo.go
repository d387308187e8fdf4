package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/automaton-epub/internal/domain/checks"
)

type CheckRepository struct {
	db  *sql.DB
	d   Dialect
	now func() time.Time
}

var _ domain.Repository = (*CheckRepository)(nil)

func NewCheckRepository(db *sql.DB, d Dialect) *CheckRepository {
	return &CheckRepository{db: db, d: d, now: time.Now}
}

const checkColumns = `id, tenant_id, triggered_at, package, status,
       fatal, error, warning, info, usage_count, findings_total,
       output, exit_code, duration_ms, epubcheck_version, artifact_url,
       locale, usage_enabled, source, metadata_json`

// Save upsert Check record and replace its diagnostics
func (r *CheckRepository) Save(ctx context.Context, c *domain.Check) error {
	q := r.d.rebind(`
INSERT INTO epub_checks
(` + checkColumns + `)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
` + r.d.upsert("id",
		"status", "fatal", "error", "warning", "info", "usage_count", "findings_total",
		"output", "exit_code", "duration_ms", "epubcheck_version", "artifact_url"))

	triggered := c.TriggeredAt
	if triggered.IsZero() {
		triggered = r.now()
	}
	meta := "{}"
	if c.Metadata != nil {
		b, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		meta = string(b)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, q,
		c.ID, stringOrDash(c.TenantID), triggered.UTC(), c.Package, stringOrDash(string(c.Status)),
		c.Counts.Fatal, c.Counts.Error, c.Counts.Warning, c.Counts.Info, c.Counts.Usage, c.Counts.Total,
		c.Output, c.ExitCode, c.DurationMS, c.EPUBCheckVersion, c.ArtifactURL,
		c.Locale, c.Usage, c.Source, meta,
	); err != nil {
		return fmt.Errorf("upsert check: %w", err)
	}

	if _, err := tx.ExecContext(ctx, r.d.rebind(`DELETE FROM epub_check_diagnostics WHERE check_id=?`), c.ID); err != nil {
		return fmt.Errorf("clear diagnostics: %w", err)
	}
	if len(c.Diagnostics) > 0 {
		stmt, err := tx.PrepareContext(ctx, r.d.rebind(`
INSERT INTO epub_check_diagnostics
(check_id, tenant_id, seq, code, severity, rule, path, line_no, col_no, message, display)
VALUES (?,?,?,?,?,?,?,?,?,?,?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, d := range c.Diagnostics {
			if _, err := stmt.ExecContext(ctx,
				c.ID, stringOrDash(c.TenantID), i, d.Code, string(d.Severity), d.Rule,
				d.Path, d.Line, d.Column, d.Message, d.Display,
			); err != nil {
				return fmt.Errorf("insert diagnostic %d: %w", i, err)
			}
		}
	}
	return tx.Commit()
}

// Get by ID + Tenant
func (r *CheckRepository) Get(ctx context.Context, tenant string, id domain.CheckID) (*domain.Check, error) {
	q := r.d.rebind(`SELECT ` + checkColumns + `
FROM epub_checks
WHERE tenant_id=? AND id=? LIMIT 1`)
	return scanCheck(r.db.QueryRowContext(ctx, q, stringOrDash(tenant), id))
}

// Latest checks per tenant
func (r *CheckRepository) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Check, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.d.rebind(`SELECT ` + checkColumns + `
FROM epub_checks
WHERE tenant_id=? ORDER BY triggered_at DESC, id DESC LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, stringOrDash(tenant), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Check
	for rows.Next() {
		c, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Summary counts check results since N days
func (r *CheckRepository) Summary(ctx context.Context, tenant string, sinceDays int) (domain.Summary, error) {
	if sinceDays <= 0 {
		sinceDays = 7
	}
	cut := r.now().UTC().AddDate(0, 0, -sinceDays)

	q := r.d.rebind(`
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN status='invalid' THEN 1 ELSE 0 END),0),
       COALESCE(SUM(fatal),0),
       COALESCE(SUM(error),0),
       COALESCE(SUM(warning),0)
FROM epub_checks
WHERE tenant_id=? AND triggered_at >= ?`)
	var s domain.Summary
	err := r.db.QueryRowContext(ctx, q, stringOrDash(tenant), cut).
		Scan(&s.Checks, &s.Invalid, &s.Fatal, &s.Error, &s.Warning)
	return s, err
}

// Diagnostics returns the parsed rows of one check in report order.
func (r *CheckRepository) Diagnostics(ctx context.Context, tenant string, id domain.CheckID) ([]domain.Diagnostic, error) {
	q := r.d.rebind(`
SELECT code, severity, rule, path, line_no, col_no, message, display
FROM epub_check_diagnostics
WHERE tenant_id=? AND check_id=?
ORDER BY seq`)
	rows, err := r.db.QueryContext(ctx, q, stringOrDash(tenant), id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Diagnostic{}
	for rows.Next() {
		var d domain.Diagnostic
		var sev string
		if err := rows.Scan(&d.Code, &sev, &d.Rule, &d.Path, &d.Line, &d.Column, &d.Message, &d.Display); err != nil {
			return nil, err
		}
		d.Severity = domain.Severity(sev)
		out = append(out, d)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCheck(row rowScanner) (*domain.Check, error) {
	var c domain.Check
	var id, status, meta string
	if err := row.Scan(
		&id, &c.TenantID, &c.TriggeredAt, &c.Package, &status,
		&c.Counts.Fatal, &c.Counts.Error, &c.Counts.Warning, &c.Counts.Info, &c.Counts.Usage, &c.Counts.Total,
		&c.Output, &c.ExitCode, &c.DurationMS, &c.EPUBCheckVersion, &c.ArtifactURL,
		&c.Locale, &c.Usage, &c.Source, &meta,
	); err != nil {
		return nil, err
	}
	c.ID = domain.CheckID(id)
	c.Status = domain.Status(status)
	if c.TenantID == "-" {
		c.TenantID = ""
	}
	if meta != "" && meta != "{}" {
		var m any
		if json.Unmarshal([]byte(meta), &m) == nil {
			c.Metadata = m
		}
	}
	return &c, nil
}
