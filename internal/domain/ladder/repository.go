package ladder

import "context"

// Repository persists ladder snapshots.
type Repository interface {
	Get(ctx context.Context, key string) (Snapshot, bool, error)
	Put(ctx context.Context, s Snapshot) error
}
