package grade

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, id string) (Grade, bool, error)
	List(ctx context.Context) ([]Grade, error)
	// ListStale returns grades whose last_checked is absent or before the
	// cutoff. The selector reads, never writes.
	ListStale(ctx context.Context, cutoff time.Time) ([]Grade, error)
	UpsertBatch(ctx context.Context, items []Grade) error
	// TouchChecked stamps last_checked without touching any other field.
	TouchChecked(ctx context.Context, ids []string, at time.Time) error
}
