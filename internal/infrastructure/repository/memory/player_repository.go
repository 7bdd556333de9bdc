package memory

import (
	"context"
	"sync"

	"github.com/mentonehc/hvsync/internal/domain/player"
)

type PlayerRepository struct {
	mu    sync.RWMutex
	items map[string]player.Player
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{items: make(map[string]player.Player)}
}

func (r *PlayerRepository) Get(_ context.Context, id string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]

	return clonePlayer(item), ok, nil
}

func (r *PlayerRepository) GetMany(_ context.Context, ids []string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			out = append(out, clonePlayer(item))
		}
	}

	return out, nil
}

func (r *PlayerRepository) UpsertBatch(_ context.Context, items []player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if existing, ok := r.items[item.ID]; ok {
			item.CreatedAt = existing.CreatedAt
		}
		r.items[item.ID] = clonePlayer(item)
	}

	return nil
}

func clonePlayer(p player.Player) player.Player {
	p.Teams = append([]player.TeamMembership(nil), p.Teams...)
	p.Participation = append([]player.Appearance(nil), p.Participation...)

	return p
}
