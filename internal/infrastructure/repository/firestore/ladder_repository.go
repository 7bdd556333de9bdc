package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/ladder"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

type LadderRepository struct {
	client *firestore.Client
}

func NewLadderRepository(client *firestore.Client) *LadderRepository {
	return &LadderRepository{client: client}
}

func (r *LadderRepository) Get(ctx context.Context, key string) (ladder.Snapshot, bool, error) {
	snap, err := r.client.Collection(colLadderCache).Doc(key).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return ladder.Snapshot{}, false, nil
		}

		return ladder.Snapshot{}, false, fmt.Errorf("get ladder snapshot %s: %w", key, err)
	}

	return document.LadderSnapshotFromDoc(snap.Data()), true, nil
}

// Put replaces the snapshot wholesale. A ladder is a point-in-time standing,
// so there is nothing to merge with.
func (r *LadderRepository) Put(ctx context.Context, s ladder.Snapshot) error {
	_, err := r.client.Collection(colLadderCache).Doc(s.Key()).Set(ctx, document.LadderSnapshotFields(s))
	if err != nil {
		return fmt.Errorf("put ladder snapshot %s: %w", s.Key(), err)
	}

	return nil
}
