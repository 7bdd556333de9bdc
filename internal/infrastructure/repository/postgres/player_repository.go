package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mentonehc/hvsync/internal/domain/player"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (player.Player, bool, error) {
	d, found, err := getDoc(ctx, r.db, "players", id)
	if err != nil || !found {
		return player.Player{}, false, err
	}

	return document.PlayerFromDoc(id, d), true, nil
}

// GetMany returns the players that exist, in id order. Missing ids are not
// an error.
func (r *PlayerRepository) GetMany(ctx context.Context, ids []string) ([]player.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("id", "doc").From("players").
		Where(qb.Expr("id = ANY(?)", pq.Array(ids))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get players query: %w", err)
	}

	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("get players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		d, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, document.PlayerFromDoc(row.ID, d))
	}

	return out, nil
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, items []player.Player) error {
	if len(items) == 0 {
		return nil
	}

	writes := make([]docWrite, 0, len(items))
	for _, p := range items {
		writes = append(writes, docWrite{id: p.ID, fields: document.PlayerFields(p)})
	}

	return upsertDocs(ctx, r.db, "players", writes)
}
