package club

import "context"

// Repository persists clubs. UpsertBatch merges field-by-field so
// dashboard-owned fields (colours, home venue) are never clobbered by a sync
// that does not set them.
type Repository interface {
	Get(ctx context.Context, id string) (Club, bool, error)
	List(ctx context.Context) ([]Club, error)
	UpsertBatch(ctx context.Context, items []Club) error
}
