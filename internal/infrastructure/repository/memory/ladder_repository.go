package memory

import (
	"context"
	"sync"

	"github.com/mentonehc/hvsync/internal/domain/ladder"
)

type LadderRepository struct {
	mu    sync.RWMutex
	items map[string]ladder.Snapshot
}

func NewLadderRepository() *LadderRepository {
	return &LadderRepository{items: make(map[string]ladder.Snapshot)}
}

func (r *LadderRepository) Get(_ context.Context, key string) (ladder.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[key]

	return item, ok, nil
}

func (r *LadderRepository) Put(_ context.Context, s ladder.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[s.Key()] = s

	return nil
}
