package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/mentonehc/hvsync/internal/domain/ladder"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

type LadderRepository struct {
	db *sqlx.DB
}

func NewLadderRepository(db *sqlx.DB) *LadderRepository {
	return &LadderRepository{db: db}
}

func (r *LadderRepository) Get(ctx context.Context, key string) (ladder.Snapshot, bool, error) {
	d, found, err := getDoc(ctx, r.db, "ladder_cache", key)
	if err != nil || !found {
		return ladder.Snapshot{}, false, err
	}

	return document.LadderSnapshotFromDoc(d), true, nil
}

// Put replaces the snapshot wholesale. A ladder is a point-in-time standing,
// so there is nothing to merge with.
func (r *LadderRepository) Put(ctx context.Context, s ladder.Snapshot) error {
	raw, err := sonic.Marshal(document.LadderSnapshotFields(s))
	if err != nil {
		return fmt.Errorf("encode ladder snapshot %s: %w", s.Key(), err)
	}

	query, args, err := qb.InsertInto("ladder_cache").Columns("id", "doc", "updated_at").
		Values(s.Key(), string(raw), s.FetchedAt.UTC()).
		Suffix("ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = EXCLUDED.updated_at").
		ToSQL()
	if err != nil {
		return fmt.Errorf("build put ladder snapshot query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put ladder snapshot %s: %w", s.Key(), err)
	}

	return nil
}
