package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mentonehc/hvsync/internal/domain/club"
)

type ClubRepository struct {
	mu    sync.RWMutex
	items map[string]club.Club
}

func NewClubRepository() *ClubRepository {
	return &ClubRepository{items: make(map[string]club.Club)}
}

func (r *ClubRepository) Get(_ context.Context, id string) (club.Club, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]

	return cloneClub(item), ok, nil
}

func (r *ClubRepository) List(_ context.Context) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.Club, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneClub(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *ClubRepository) UpsertBatch(_ context.Context, items []club.Club) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if existing, ok := r.items[item.ID]; ok {
			// Colours and the home-venue hint are dashboard-owned.
			item.CreatedAt = existing.CreatedAt
			item.Colors = existing.Colors
			item.HomeVenue = existing.HomeVenue
		}
		r.items[item.ID] = cloneClub(item)
	}

	return nil
}

func cloneClub(c club.Club) club.Club {
	c.Colors = append([]string(nil), c.Colors...)

	return c
}
