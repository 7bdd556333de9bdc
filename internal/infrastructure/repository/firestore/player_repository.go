package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/player"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

type PlayerRepository struct {
	client *firestore.Client
}

func NewPlayerRepository(client *firestore.Client) *PlayerRepository {
	return &PlayerRepository{client: client}
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (player.Player, bool, error) {
	snap, err := r.client.Collection(colPlayers).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}

		return player.Player{}, false, fmt.Errorf("get player %s: %w", id, err)
	}

	return document.PlayerFromDoc(snap.Ref.ID, snap.Data()), true, nil
}

func (r *PlayerRepository) GetMany(ctx context.Context, ids []string) ([]player.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	col := r.client.Collection(colPlayers)
	out := make([]player.Player, 0, len(ids))
	for start := 0; start < len(ids); start += maxBatchWrites {
		end := min(start+maxBatchWrites, len(ids))

		refs := make([]*firestore.DocumentRef, 0, end-start)
		for _, id := range ids[start:end] {
			refs = append(refs, col.Doc(id))
		}
		snaps, err := r.client.GetAll(ctx, refs)
		if err != nil {
			return nil, fmt.Errorf("get players: %w", err)
		}
		for _, snap := range snaps {
			if !snap.Exists() {
				continue
			}
			out = append(out, document.PlayerFromDoc(snap.Ref.ID, snap.Data()))
		}
	}

	return out, nil
}

func (r *PlayerRepository) UpsertBatch(ctx context.Context, items []player.Player) error {
	if len(items) == 0 {
		return nil
	}

	col := r.client.Collection(colPlayers)
	refs := make([]*firestore.DocumentRef, len(items))
	for i, p := range items {
		refs[i] = col.Doc(p.ID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("upsert players: %w", err)
	}

	writes := make([]write, 0, len(items))
	for i, p := range items {
		fields := document.PlayerFields(p)
		if existing[p.ID] {
			delete(fields, "created_at")
		}
		writes = append(writes, write{ref: refs[i], fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("upsert players: %w", err)
	}

	return nil
}
