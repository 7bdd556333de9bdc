package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/grade"
)

type GradeRepository struct {
	mu    sync.RWMutex
	items map[string]grade.Grade
}

func NewGradeRepository() *GradeRepository {
	return &GradeRepository{items: make(map[string]grade.Grade)}
}

func (r *GradeRepository) Get(_ context.Context, id string) (grade.Grade, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]

	return item, ok, nil
}

func (r *GradeRepository) List(_ context.Context) ([]grade.Grade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(grade.Grade) bool { return true }), nil
}

func (r *GradeRepository) ListStale(_ context.Context, cutoff time.Time) ([]grade.Grade, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sorted(func(g grade.Grade) bool {
		return g.LastChecked.IsZero() || g.LastChecked.Before(cutoff)
	}), nil
}

func (r *GradeRepository) UpsertBatch(_ context.Context, items []grade.Grade) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if existing, ok := r.items[item.ID]; ok {
			item.CreatedAt = existing.CreatedAt
			item.LastChecked = existing.LastChecked
		}
		r.items[item.ID] = item
	}

	return nil
}

func (r *GradeRepository) TouchChecked(_ context.Context, ids []string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			item.LastChecked = at
			r.items[id] = item
		}
	}

	return nil
}

func (r *GradeRepository) sorted(keep func(grade.Grade) bool) []grade.Grade {
	out := make([]grade.Grade, 0, len(r.items))
	for _, item := range r.items {
		if keep(item) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}
