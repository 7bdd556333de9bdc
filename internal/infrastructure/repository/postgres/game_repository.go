package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
	qb "github.com/mentonehc/hvsync/internal/platform/querybuilder"
)

var recheckableStatuses = []string{
	string(game.StatusScheduled),
	string(game.StatusPostponed),
	string(game.StatusUnknownOutcome),
}

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) Get(ctx context.Context, id string) (game.Game, bool, error) {
	d, found, err := getDoc(ctx, r.db, "games", id)
	if err != nil || !found {
		return game.Game{}, false, err
	}

	return document.GameFromDoc(id, d), true, nil
}

func (r *GameRepository) ListByTeam(ctx context.Context, teamID string) ([]game.Game, error) {
	query, args, err := buildTeamGamesQuery(teamID)
	if err != nil {
		return nil, fmt.Errorf("build list games by team query: %w", err)
	}

	return r.selectGames(ctx, query, args)
}

func buildTeamGamesQuery(teamID string) (string, []any, error) {
	member, err := sonic.Marshal([]string{teamID})
	if err != nil {
		return "", nil, err
	}

	return qb.Select("id", "doc").From("games").
		Where(qb.Expr("doc->'team_ids' @> ?::jsonb", string(member))).
		OrderBy("(doc->>'date')::timestamptz", "id").
		ToSQL()
}

func (r *GameRepository) ListForResults(ctx context.Context, q game.ResultQuery) ([]game.Game, error) {
	query, args, err := buildResultsQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build list games for results query: %w", err)
	}

	return r.selectGames(ctx, query, args)
}

func buildResultsQuery(q game.ResultQuery) (string, []any, error) {
	builder := qb.Select("id", "doc").From("games")
	if !q.IncludeTerminal {
		builder.Where(qb.Expr("doc->>'status' = ANY(?)", pq.Array(recheckableStatuses)))
	}
	if !q.Since.IsZero() {
		builder.Where(qb.Expr("(doc->>'date')::timestamptz >= ?", q.Since.UTC()))
	}
	if !q.Until.IsZero() {
		builder.Where(qb.Expr("(doc->>'date')::timestamptz <= ?", q.Until.UTC()))
	}
	if q.CompetitionID != "" {
		builder.Where(qb.Eq("doc->>'competition_id'", q.CompetitionID))
	}
	if q.HomeClubOnly {
		builder.Where(qb.Expr("(doc->>'mentone_playing')::boolean"))
	}
	builder.OrderBy("(doc->>'date')::timestamptz", "id")
	if q.Limit > 0 {
		builder.Limit(q.Limit)
	}

	return builder.ToSQL()
}

func (r *GameRepository) selectGames(ctx context.Context, query string, args []any) ([]game.Game, error) {
	var rows []docRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select games: %w", err)
	}

	out := make([]game.Game, 0, len(rows))
	for _, row := range rows {
		d, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, document.GameFromDoc(row.ID, d))
	}

	return out, nil
}

// UpsertBatch merges fixture fields. On existing rows the stage-owned keys
// are subtracted from the incoming document, so a stale round card never
// regresses a recorded result.
func (r *GameRepository) UpsertBatch(ctx context.Context, items []game.Game) error {
	if len(items) == 0 {
		return nil
	}

	writes := make([]docWrite, 0, len(items))
	for _, g := range items {
		writes = append(writes, docWrite{id: g.ID, fields: document.GameFields(g)})
	}

	return upsertDocs(ctx, r.db, "games", writes, document.GameStageOwnedKeys...)
}

func (r *GameRepository) ApplyResults(ctx context.Context, updates []game.ResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	const query = "UPDATE games SET doc = doc || $2::jsonb, updated_at = $3 WHERE id = $1"
	for _, u := range updates {
		raw, err := sonic.Marshal(document.GameResultFields(u))
		if err != nil {
			return fmt.Errorf("encode result fields %s: %w", u.GameID, err)
		}
		if _, err := r.db.ExecContext(ctx, query, u.GameID, string(raw), u.RetrievedAt.UTC()); err != nil {
			return fmt.Errorf("apply game result %s: %w", u.GameID, err)
		}
	}

	return nil
}

// ApplyParticipation replaces each game's participation list and unions the
// processed marker. The row is locked while the marker union is computed.
func (r *GameRepository) ApplyParticipation(ctx context.Context, updates []game.ParticipationUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin participation update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const lockQuery = "SELECT id, doc FROM games WHERE id = $1 FOR UPDATE"
	const updateQuery = "UPDATE games SET doc = doc || $2::jsonb, updated_at = $3 WHERE id = $1"

	for _, u := range updates {
		var row docRow
		if err := tx.GetContext(ctx, &row, lockQuery, u.GameID); err != nil {
			if isNotFound(err) {
				continue
			}

			return fmt.Errorf("lock game %s: %w", u.GameID, err)
		}

		d, err := row.decode()
		if err != nil {
			return err
		}
		stored := document.GameFromDoc(u.GameID, d)

		fields := document.GameParticipationFields(u)
		if u.ProcessedForTeam != "" {
			marked := append([]string(nil), stored.StatsProcessedFor...)
			if !stored.ProcessedFor(u.ProcessedForTeam) {
				marked = append(marked, u.ProcessedForTeam)
			}
			fields["stats_processed_for"] = marked
		}

		raw, err := sonic.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encode participation fields %s: %w", u.GameID, err)
		}
		if _, err := tx.ExecContext(ctx, updateQuery, u.GameID, string(raw), u.At.UTC()); err != nil {
			return fmt.Errorf("apply game participation %s: %w", u.GameID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit participation update: %w", err)
	}

	return nil
}
