package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) Get(ctx context.Context, id string) (club.Club, bool, error) {
	d, found, err := getDoc(ctx, r.db, "clubs", id)
	if err != nil || !found {
		return club.Club{}, false, err
	}

	return document.ClubFromDoc(id, d), true, nil
}

func (r *ClubRepository) List(ctx context.Context) ([]club.Club, error) {
	query, args, err := qb.Select("id", "doc").From("clubs").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list clubs query: %w", err)
	}

	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		d, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, document.ClubFromDoc(row.ID, d))
	}

	return out, nil
}

// UpsertBatch merges the sync-owned club fields. Colours and the home venue
// hint never appear in the field map, so dashboard edits survive the merge.
func (r *ClubRepository) UpsertBatch(ctx context.Context, items []club.Club) error {
	if len(items) == 0 {
		return nil
	}

	writes := make([]docWrite, 0, len(items))
	for _, c := range items {
		writes = append(writes, docWrite{id: c.ID, fields: document.ClubFields(c)})
	}

	return upsertDocs(ctx, r.db, "clubs", writes)
}
