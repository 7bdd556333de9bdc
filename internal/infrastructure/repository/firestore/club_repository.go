package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

type ClubRepository struct {
	client *firestore.Client
}

func NewClubRepository(client *firestore.Client) *ClubRepository {
	return &ClubRepository{client: client}
}

func (r *ClubRepository) Get(ctx context.Context, id string) (club.Club, bool, error) {
	snap, err := r.client.Collection(colClubs).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}

		return club.Club{}, false, fmt.Errorf("get club %s: %w", id, err)
	}

	return document.ClubFromDoc(snap.Ref.ID, snap.Data()), true, nil
}

func (r *ClubRepository) List(ctx context.Context) ([]club.Club, error) {
	var out []club.Club
	iter := r.client.Collection(colClubs).Documents(ctx)
	if err := iterateDocs(iter, func(id string, d document.Doc) {
		out = append(out, document.ClubFromDoc(id, d))
	}); err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}

	return out, nil
}

// UpsertBatch merge-sets the sync-owned club fields. Colours and the home
// venue hint never appear in the field map, so dashboard edits survive.
func (r *ClubRepository) UpsertBatch(ctx context.Context, items []club.Club) error {
	if len(items) == 0 {
		return nil
	}

	col := r.client.Collection(colClubs)
	refs := make([]*firestore.DocumentRef, len(items))
	for i, c := range items {
		refs[i] = col.Doc(c.ID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("upsert clubs: %w", err)
	}

	writes := make([]write, 0, len(items))
	for i, c := range items {
		fields := document.ClubFields(c)
		if existing[c.ID] {
			delete(fields, "created_at")
		}
		writes = append(writes, write{ref: refs[i], fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("upsert clubs: %w", err)
	}

	return nil
}
