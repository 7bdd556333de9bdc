package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/mentonehc/hvsync/internal/domain/venue"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

type VenueRepository struct {
	db *sqlx.DB
}

func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

func (r *VenueRepository) Get(ctx context.Context, id string) (venue.Venue, bool, error) {
	d, found, err := getDoc(ctx, r.db, "venues", id)
	if err != nil || !found {
		return venue.Venue{}, false, err
	}

	return document.VenueFromDoc(id, d), true, nil
}

func (r *VenueRepository) List(ctx context.Context) ([]venue.Venue, error) {
	query, args, err := qb.Select("id", "doc").From("venues").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list venues query: %w", err)
	}

	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}

	out := make([]venue.Venue, 0, len(rows))
	for _, row := range rows {
		d, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, document.VenueFromDoc(row.ID, d))
	}

	return out, nil
}

// UpsertBatch merges venue fields. The stored source URL list is unioned
// with the incoming one under a row lock, so repeat discoveries accumulate
// instead of replacing each other.
func (r *VenueRepository) UpsertBatch(ctx context.Context, items []venue.Venue) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin venue upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const lockQuery = "SELECT id, doc FROM venues WHERE id = $1 FOR UPDATE"
	suffix := mergeUpsertSuffix("venues")
	now := time.Now().UTC()

	for _, v := range items {
		fields := document.VenueFields(v)

		var row docRow
		err := tx.GetContext(ctx, &row, lockQuery, v.ID)
		switch {
		case err == nil:
			d, err := row.decode()
			if err != nil {
				return err
			}
			merged := document.VenueFromDoc(v.ID, d)
			for _, url := range v.SourceGameURLs {
				merged.AddSource(url)
			}
			fields["source_game_urls"] = merged.SourceGameURLs
		case isNotFound(err):
			// first sighting, insert the full document
		default:
			return fmt.Errorf("lock venue %s: %w", v.ID, err)
		}

		raw, err := sonic.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encode venue %s: %w", v.ID, err)
		}
		query, args, err := qb.InsertInto("venues").Columns("id", "doc", "updated_at").
			Values(v.ID, string(raw), now).
			Suffix(suffix).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build upsert venue query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert venue %s: %w", v.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit venue upsert: %w", err)
	}

	return nil
}
