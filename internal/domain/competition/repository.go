package competition

import "context"

// Repository persists competitions with merge-upsert semantics: existing
// fields outside the written set survive, created_at is preserved.
type Repository interface {
	Get(ctx context.Context, id string) (Competition, bool, error)
	List(ctx context.Context) ([]Competition, error)
	UpsertBatch(ctx context.Context, items []Competition) error
}
