package player

import "context"

// Repository persists players. GetMany tolerates missing ids so the players
// stage can read-merge-write a roster in one round trip.
type Repository interface {
	Get(ctx context.Context, id string) (Player, bool, error)
	GetMany(ctx context.Context, ids []string) ([]Player, error)
	UpsertBatch(ctx context.Context, items []Player) error
}
