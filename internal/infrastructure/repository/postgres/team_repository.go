package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"

	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Get(ctx context.Context, id string) (team.Team, bool, error) {
	d, found, err := getDoc(ctx, r.db, "teams", id)
	if err != nil || !found {
		return team.Team{}, false, err
	}

	return document.TeamFromDoc(id, d), true, nil
}

func (r *TeamRepository) List(ctx context.Context, q team.Query) ([]team.Team, error) {
	query, args, err := buildTeamListQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}

	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		d, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, document.TeamFromDoc(row.ID, d))
	}

	return out, nil
}

func buildTeamListQuery(q team.Query) (string, []any, error) {
	builder := qb.Select("id", "doc").From("teams")
	if q.CompetitionID != "" {
		builder.Where(qb.Eq("doc->>'competition_id'", q.CompetitionID))
	}
	if q.GradeID != "" {
		builder.Where(qb.Eq("doc->>'grade_id'", q.GradeID))
	}
	if q.HomeClubOnly {
		builder.Where(qb.Expr("(doc->>'is_home_club')::boolean"))
	}
	builder.OrderBy("id")
	if q.Limit > 0 {
		builder.Limit(q.Limit)
	}

	return builder.ToSQL()
}

// UpsertBatch merges the identity fields. Ladder keys are not in the field
// map, so a teams walk never clobbers a ladder snapshot.
func (r *TeamRepository) UpsertBatch(ctx context.Context, items []team.Team) error {
	if len(items) == 0 {
		return nil
	}

	writes := make([]docWrite, 0, len(items))
	for _, t := range items {
		writes = append(writes, docWrite{id: t.ID, fields: document.TeamFields(t)})
	}

	return upsertDocs(ctx, r.db, "teams", writes)
}

// UpdateLadder merges ladder fields onto teams that already exist. Rows for
// unknown team ids match nothing, which skips opponents the teams walk never
// stored.
func (r *TeamRepository) UpdateLadder(ctx context.Context, updates []team.LadderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	const query = "UPDATE teams SET doc = doc || $2::jsonb, updated_at = $3 WHERE id = $1"
	now := time.Now().UTC()
	for _, u := range updates {
		raw, err := sonic.Marshal(document.TeamLadderFields(u))
		if err != nil {
			return fmt.Errorf("encode ladder fields %s: %w", u.TeamID, err)
		}
		if _, err := r.db.ExecContext(ctx, query, u.TeamID, string(raw), now); err != nil {
			return fmt.Errorf("update ladder %s: %w", u.TeamID, err)
		}
	}

	return nil
}
