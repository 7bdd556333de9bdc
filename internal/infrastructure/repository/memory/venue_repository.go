package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/mentonehc/hvsync/internal/domain/venue"
)

type VenueRepository struct {
	mu    sync.RWMutex
	items map[string]venue.Venue
}

func NewVenueRepository() *VenueRepository {
	return &VenueRepository{items: make(map[string]venue.Venue)}
}

func (r *VenueRepository) Get(_ context.Context, id string) (venue.Venue, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]

	return cloneVenue(item), ok, nil
}

func (r *VenueRepository) List(_ context.Context) ([]venue.Venue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]venue.Venue, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, cloneVenue(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *VenueRepository) UpsertBatch(_ context.Context, items []venue.Venue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if existing, ok := r.items[item.ID]; ok {
			item.CreatedAt = existing.CreatedAt
			merged := existing
			for _, url := range item.SourceGameURLs {
				merged.AddSource(url)
			}
			item.SourceGameURLs = merged.SourceGameURLs
		}
		r.items[item.ID] = cloneVenue(item)
	}

	return nil
}

func cloneVenue(v venue.Venue) venue.Venue {
	v.SourceGameURLs = append([]string(nil), v.SourceGameURLs...)

	return v
}
