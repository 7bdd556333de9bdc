package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mentonehc/hvsync/internal/domain/competition"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) Get(ctx context.Context, id string) (competition.Competition, bool, error) {
	d, found, err := getDoc(ctx, r.db, "competitions", id)
	if err != nil || !found {
		return competition.Competition{}, false, err
	}

	return document.CompetitionFromDoc(id, d), true, nil
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	query, args, err := qb.Select("id", "doc").From("competitions").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list competitions query: %w", err)
	}

	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		d, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, document.CompetitionFromDoc(row.ID, d))
	}

	return out, nil
}

func (r *CompetitionRepository) UpsertBatch(ctx context.Context, items []competition.Competition) error {
	if len(items) == 0 {
		return nil
	}

	writes := make([]docWrite, 0, len(items))
	for _, c := range items {
		writes = append(writes, docWrite{id: c.ID, fields: document.CompetitionFields(c)})
	}

	return upsertDocs(ctx, r.db, "competitions", writes)
}
