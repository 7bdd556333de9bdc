package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

type GradeRepository struct {
	db *sqlx.DB
}

func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

func (r *GradeRepository) Get(ctx context.Context, id string) (grade.Grade, bool, error) {
	d, found, err := getDoc(ctx, r.db, "grades", id)
	if err != nil || !found {
		return grade.Grade{}, false, err
	}

	return document.GradeFromDoc(id, d), true, nil
}

func (r *GradeRepository) List(ctx context.Context) ([]grade.Grade, error) {
	query, args, err := qb.Select("id", "doc").From("grades").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list grades query: %w", err)
	}

	return r.selectGrades(ctx, query, args)
}

func (r *GradeRepository) ListStale(ctx context.Context, cutoff time.Time) ([]grade.Grade, error) {
	query, args, err := qb.Select("id", "doc").From("grades").
		Where(qb.Expr("(doc->>'last_checked' IS NULL OR (doc->>'last_checked')::timestamptz < ?)", cutoff.UTC())).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list stale grades query: %w", err)
	}

	return r.selectGrades(ctx, query, args)
}

func (r *GradeRepository) selectGrades(ctx context.Context, query string, args []any) ([]grade.Grade, error) {
	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select grades: %w", err)
	}

	out := make([]grade.Grade, 0, len(rows))
	for _, row := range rows {
		d, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, document.GradeFromDoc(row.ID, d))
	}

	return out, nil
}

func (r *GradeRepository) UpsertBatch(ctx context.Context, items []grade.Grade) error {
	if len(items) == 0 {
		return nil
	}

	writes := make([]docWrite, 0, len(items))
	for _, g := range items {
		writes = append(writes, docWrite{id: g.ID, fields: document.GradeFields(g)})
	}

	return upsertDocs(ctx, r.db, "grades", writes)
}

func (r *GradeRepository) TouchChecked(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	raw, err := sonic.Marshal(document.GradeCheckedFields(at))
	if err != nil {
		return fmt.Errorf("encode grade checked fields: %w", err)
	}

	const query = "UPDATE grades SET doc = doc || $1::jsonb, updated_at = $2 WHERE id = ANY($3)"
	if _, err := r.db.ExecContext(ctx, query, string(raw), at.UTC(), pq.Array(ids)); err != nil {
		return fmt.Errorf("touch grades checked: %w", err)
	}

	return nil
}
