package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

var recheckableStatuses = []string{
	string(game.StatusScheduled),
	string(game.StatusPostponed),
	string(game.StatusUnknownOutcome),
}

type GameRepository struct {
	client *firestore.Client
}

func NewGameRepository(client *firestore.Client) *GameRepository {
	return &GameRepository{client: client}
}

func (r *GameRepository) Get(ctx context.Context, id string) (game.Game, bool, error) {
	snap, err := r.client.Collection(colGames).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}

		return game.Game{}, false, fmt.Errorf("get game %s: %w", id, err)
	}

	return document.GameFromDoc(snap.Ref.ID, snap.Data()), true, nil
}

func (r *GameRepository) ListByTeam(ctx context.Context, teamID string) ([]game.Game, error) {
	q := r.client.Collection(colGames).Query.Where("team_ids", "array-contains", teamID)

	var out []game.Game
	if err := iterateDocs(q.Documents(ctx), func(id string, d document.Doc) {
		out = append(out, document.GameFromDoc(id, d))
	}); err != nil {
		return nil, fmt.Errorf("list games for team %s: %w", teamID, err)
	}

	sortGames(out)

	return out, nil
}

func (r *GameRepository) ListForResults(ctx context.Context, q game.ResultQuery) ([]game.Game, error) {
	fq := r.client.Collection(colGames).Query
	if !q.IncludeTerminal {
		fq = fq.Where("status", "in", recheckableStatuses)
	}

	// Only the status filter runs server-side; a range filter alongside it
	// would need a composite index.
	var out []game.Game
	if err := iterateDocs(fq.Documents(ctx), func(id string, d document.Doc) {
		g := document.GameFromDoc(id, d)
		if !q.Since.IsZero() && g.Date.Before(q.Since) {
			return
		}
		if !q.Until.IsZero() && g.Date.After(q.Until) {
			return
		}
		if q.CompetitionID != "" && g.CompetitionID != q.CompetitionID {
			return
		}
		if q.HomeClubOnly && !g.MentonePlaying {
			return
		}
		out = append(out, g)
	}); err != nil {
		return nil, fmt.Errorf("list games for results: %w", err)
	}

	sortGames(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	return out, nil
}

// UpsertBatch merge-sets fixture fields. On documents that already exist the
// stage-owned keys are stripped first, so a stale round card never regresses
// a recorded result.
func (r *GameRepository) UpsertBatch(ctx context.Context, items []game.Game) error {
	if len(items) == 0 {
		return nil
	}

	col := r.client.Collection(colGames)
	refs := make([]*firestore.DocumentRef, len(items))
	for i, g := range items {
		refs[i] = col.Doc(g.ID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("upsert games: %w", err)
	}

	writes := make([]write, 0, len(items))
	for i, g := range items {
		fields := document.GameFields(g)
		if existing[g.ID] {
			delete(fields, "created_at")
			for _, key := range document.GameStageOwnedKeys {
				delete(fields, key)
			}
		}
		writes = append(writes, write{ref: refs[i], fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("upsert games: %w", err)
	}

	return nil
}

func (r *GameRepository) ApplyResults(ctx context.Context, updates []game.ResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	col := r.client.Collection(colGames)
	writes := make([]write, 0, len(updates))
	for _, u := range updates {
		writes = append(writes, write{ref: col.Doc(u.GameID), fields: document.GameResultFields(u)})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("apply game results: %w", err)
	}

	return nil
}

func (r *GameRepository) ApplyParticipation(ctx context.Context, updates []game.ParticipationUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	col := r.client.Collection(colGames)
	writes := make([]write, 0, len(updates))
	for _, u := range updates {
		fields := document.GameParticipationFields(u)
		if u.ProcessedForTeam != "" {
			fields["stats_processed_for"] = firestore.ArrayUnion(u.ProcessedForTeam)
		}
		writes = append(writes, write{ref: col.Doc(u.GameID), fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("apply game participation: %w", err)
	}

	return nil
}

func sortGames(games []game.Game) {
	sort.Slice(games, func(i, j int) bool {
		if games[i].Date.Equal(games[j].Date) {
			return games[i].ID < games[j].ID
		}

		return games[i].Date.Before(games[j].Date)
	})
}
