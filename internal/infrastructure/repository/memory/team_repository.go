package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mentonehc/hvsync/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	items map[string]team.Team
}

func NewTeamRepository() *TeamRepository {
	return &TeamRepository{items: make(map[string]team.Team)}
}

func (r *TeamRepository) Get(_ context.Context, id string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]

	return cloneTeam(item), ok, nil
}

func (r *TeamRepository) List(_ context.Context, q team.Query) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0, len(r.items))
	for _, item := range r.items {
		if q.CompetitionID != "" && item.CompetitionID != q.CompetitionID {
			continue
		}
		if q.GradeID != "" && item.GradeID != q.GradeID {
			continue
		}
		if q.HomeClubOnly && !item.IsHomeClub {
			continue
		}
		out = append(out, cloneTeam(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}

	return out, nil
}

func (r *TeamRepository) UpsertBatch(_ context.Context, items []team.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if existing, ok := r.items[item.ID]; ok {
			// Ladder fields belong to the ladder stage.
			item.CreatedAt = existing.CreatedAt
			item.LadderPosition = existing.LadderPosition
			item.LadderPoints = existing.LadderPoints
			item.LadderStats = existing.LadderStats
			item.LadderUpdatedAt = existing.LadderUpdatedAt
		}
		r.items[item.ID] = cloneTeam(item)
	}

	return nil
}

func (r *TeamRepository) UpdateLadder(_ context.Context, updates []team.LadderUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range updates {
		item, ok := r.items[u.TeamID]
		if !ok {
			continue
		}
		stats := u.Stats
		item.LadderPosition = u.Position
		item.LadderPoints = u.Points
		item.LadderStats = &stats
		item.LadderUpdatedAt = u.At
		item.UpdatedAt = u.At
		r.items[u.TeamID] = item
	}

	return nil
}

func cloneTeam(t team.Team) team.Team {
	if t.LadderStats != nil {
		stats := *t.LadderStats
		t.LadderStats = &stats
	}

	return t
}
