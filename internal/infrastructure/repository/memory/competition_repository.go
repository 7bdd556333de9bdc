// Package memory holds map-backed repositories with the same merge
// semantics as the document backends. Tests and local runs use them in
// place of Firestore or Postgres.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mentonehc/hvsync/internal/domain/competition"
)

type CompetitionRepository struct {
	mu    sync.RWMutex
	items map[string]competition.Competition
}

func NewCompetitionRepository() *CompetitionRepository {
	return &CompetitionRepository{items: make(map[string]competition.Competition)}
}

func (r *CompetitionRepository) Get(_ context.Context, id string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]

	return item, ok, nil
}

func (r *CompetitionRepository) List(_ context.Context) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]competition.Competition, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *CompetitionRepository) UpsertBatch(_ context.Context, items []competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if existing, ok := r.items[item.ID]; ok {
			item.CreatedAt = existing.CreatedAt
		}
		r.items[item.ID] = item
	}

	return nil
}
