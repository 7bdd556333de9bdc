package venue

import "context"

// Repository persists venues. UpsertBatch merges field-by-field; the source
// URL list is unioned, never replaced.
type Repository interface {
	Get(ctx context.Context, id string) (Venue, bool, error)
	List(ctx context.Context) ([]Venue, error)
	UpsertBatch(ctx context.Context, items []Venue) error
}
