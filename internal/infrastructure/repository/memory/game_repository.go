package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mentonehc/hvsync/internal/domain/game"
)

type GameRepository struct {
	mu    sync.RWMutex
	items map[string]game.Game
}

func NewGameRepository() *GameRepository {
	return &GameRepository{items: make(map[string]game.Game)}
}

func (r *GameRepository) Get(_ context.Context, id string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]

	return cloneGame(item), ok, nil
}

func (r *GameRepository) ListByTeam(_ context.Context, teamID string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.items {
		if item.HomeTeam.ID == teamID || item.AwayTeam.ID == teamID {
			out = append(out, cloneGame(item))
		}
	}
	sortGames(out)

	return out, nil
}

func (r *GameRepository) ListForResults(_ context.Context, q game.ResultQuery) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.Game, 0)
	for _, item := range r.items {
		if !q.IncludeTerminal && !item.Status.Recheckable() {
			continue
		}
		if !q.Since.IsZero() && item.Date.Before(q.Since) {
			continue
		}
		if !q.Until.IsZero() && item.Date.After(q.Until) {
			continue
		}
		if q.CompetitionID != "" && item.CompetitionID != q.CompetitionID {
			continue
		}
		if q.HomeClubOnly && !item.MentonePlaying {
			continue
		}
		out = append(out, cloneGame(item))
	}
	sortGames(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	return out, nil
}

func (r *GameRepository) UpsertBatch(_ context.Context, items []game.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if existing, ok := r.items[item.ID]; ok {
			// Result and participation fields belong to later stages.
			item.CreatedAt = existing.CreatedAt
			item.Status = existing.Status
			item.HomeTeam.Score = existing.HomeTeam.Score
			item.AwayTeam.Score = existing.AwayTeam.Score
			item.WinnerText = existing.WinnerText
			item.MentoneResult = existing.MentoneResult
			item.ResultsRetrievedAt = existing.ResultsRetrievedAt
			item.Participation = existing.Participation
			item.StatsProcessedFor = existing.StatsProcessedFor
		}
		r.items[item.ID] = cloneGame(item)
	}

	return nil
}

func (r *GameRepository) ApplyResults(_ context.Context, updates []game.ResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range updates {
		item, ok := r.items[u.GameID]
		if !ok {
			continue
		}
		item.Status = u.Status
		if u.HomeScore != nil {
			score := *u.HomeScore
			item.HomeTeam.Score = &score
		}
		if u.AwayScore != nil {
			score := *u.AwayScore
			item.AwayTeam.Score = &score
		}
		item.WinnerText = u.WinnerText
		item.MentoneResult = u.MentoneResult
		item.ResultsRetrievedAt = u.RetrievedAt
		item.UpdatedAt = u.RetrievedAt
		r.items[u.GameID] = item
	}

	return nil
}

func (r *GameRepository) ApplyParticipation(_ context.Context, updates []game.ParticipationUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range updates {
		item, ok := r.items[u.GameID]
		if !ok {
			continue
		}
		item.Participation = append([]game.Appearance(nil), u.Entries...)
		if u.ProcessedForTeam != "" && !item.ProcessedFor(u.ProcessedForTeam) {
			item.StatsProcessedFor = append(item.StatsProcessedFor, u.ProcessedForTeam)
		}
		item.UpdatedAt = u.At
		r.items[u.GameID] = item
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

func cloneGame(g game.Game) game.Game {
	g.HomeTeam = cloneSide(g.HomeTeam)
	g.AwayTeam = cloneSide(g.AwayTeam)
	g.Participation = append([]game.Appearance(nil), g.Participation...)
	g.StatsProcessedFor = append([]string(nil), g.StatsProcessedFor...)

	return g
}

func cloneSide(s game.Side) game.Side {
	if s.Score != nil {
		score := *s.Score
		s.Score = &score
	}

	return s
}
