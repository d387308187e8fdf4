package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	domain "github.com/bryanwahyu/automaton-epub/internal/domain/advice"
)

type AdviceRepository struct {
	db *sql.DB
	d  Dialect
}

var _ domain.Repository = (*AdviceRepository)(nil)

func NewAdviceRepository(db *sql.DB, d Dialect) *AdviceRepository {
	return &AdviceRepository{db: db, d: d}
}

// Save inserts or updates an advice record
func (r *AdviceRepository) Save(ctx context.Context, a *domain.Advice) error {
	q := r.d.rebind(`
INSERT INTO epub_check_advice
  (id, tenant_id, check_id, model, result_json, created_at)
VALUES (?,?,?,?,?,?)
` + r.d.upsert("id", "model", "result_json"))
	result := a.Result
	if strings.TrimSpace(result) == "" {
		result = "{}"
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, a.ID, stringOrDash(a.TenantID), a.CheckID, stringOrDash(a.Model), result, created.UTC())
	return err
}

// Paginate returns a page of advice records ordered by created_at desc
func (r *AdviceRepository) Paginate(ctx context.Context, tenant string, page, pageSize int) ([]*domain.Advice, error) {
	limit, offset := pageBounds(page, pageSize)
	q := r.d.rebind(`
SELECT id, tenant_id, check_id, model, result_json, created_at
FROM epub_check_advice
WHERE tenant_id=?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?`)
	rows, err := r.db.QueryContext(ctx, q, stringOrDash(tenant), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Advice
	for rows.Next() {
		a, err := scanAdvice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// LatestByCheck returns the latest advice for a given check, nil when none
func (r *AdviceRepository) LatestByCheck(ctx context.Context, tenant string, checkID string) (*domain.Advice, error) {
	q := r.d.rebind(`
SELECT id, tenant_id, check_id, model, result_json, created_at
FROM epub_check_advice
WHERE tenant_id=? AND check_id=?
ORDER BY created_at DESC, id DESC
LIMIT 1`)
	a, err := scanAdvice(r.db.QueryRowContext(ctx, q, stringOrDash(tenant), checkID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func scanAdvice(row rowScanner) (*domain.Advice, error) {
	var a domain.Advice
	var id string
	if err := row.Scan(&id, &a.TenantID, &a.CheckID, &a.Model, &a.Result, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = domain.AdviceID(id)
	return &a, nil
}
