package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	domain "github.com/bryanwahyu/automaton-epub/internal/domain/checkerrors"
)

type CheckErrorRepository struct {
	db *sql.DB
	d  Dialect
}

var _ domain.Repository = (*CheckErrorRepository)(nil)

func NewCheckErrorRepository(db *sql.DB, d Dialect) *CheckErrorRepository {
	return &CheckErrorRepository{db: db, d: d}
}

func (r *CheckErrorRepository) Save(ctx context.Context, e *domain.CheckError) error {
	q := r.d.rebind(`
INSERT INTO epub_check_errors
  (tenant_id, check_id, package, phase, message, details_json, created_at)
VALUES (?,?,?,?,?,?,?)`)
	msg := e.Message
	if strings.TrimSpace(msg) == "" {
		msg = "-"
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q,
		stringOrDash(e.TenantID), stringOrDash(e.CheckID), stringOrDash(e.Package), stringOrDash(e.Phase),
		msg, jsonOrEmpty(e.DetailsJSON), created.UTC())
	return err
}

func (r *CheckErrorRepository) ListByCheck(ctx context.Context, tenant string, checkID string, limit int) ([]*domain.CheckError, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.d.rebind(`
SELECT id, tenant_id, check_id, package, phase, message, details_json, created_at
FROM epub_check_errors
WHERE tenant_id = ? AND check_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, stringOrDash(tenant), checkID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CheckError
	for rows.Next() {
		var e domain.CheckError
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CheckID, &e.Package, &e.Phase, &e.Message, &e.DetailsJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
