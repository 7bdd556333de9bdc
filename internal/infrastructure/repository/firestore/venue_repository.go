package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/venue"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

type VenueRepository struct {
	client *firestore.Client
}

func NewVenueRepository(client *firestore.Client) *VenueRepository {
	return &VenueRepository{client: client}
}

func (r *VenueRepository) Get(ctx context.Context, id string) (venue.Venue, bool, error) {
	snap, err := r.client.Collection(colVenues).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return venue.Venue{}, false, nil
		}

		return venue.Venue{}, false, fmt.Errorf("get venue %s: %w", id, err)
	}

	return document.VenueFromDoc(snap.Ref.ID, snap.Data()), true, nil
}

func (r *VenueRepository) List(ctx context.Context) ([]venue.Venue, error) {
	var out []venue.Venue
	iter := r.client.Collection(colVenues).Documents(ctx)
	if err := iterateDocs(iter, func(id string, d document.Doc) {
		out = append(out, document.VenueFromDoc(id, d))
	}); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}

	return out, nil
}

// UpsertBatch merge-sets venue fields. The source URL list becomes an
// ArrayUnion transform so concurrent runs union instead of racing.
func (r *VenueRepository) UpsertBatch(ctx context.Context, items []venue.Venue) error {
	if len(items) == 0 {
		return nil
	}

	col := r.client.Collection(colVenues)
	refs := make([]*firestore.DocumentRef, len(items))
	for i, v := range items {
		refs[i] = col.Doc(v.ID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("upsert venues: %w", err)
	}

	writes := make([]write, 0, len(items))
	for i, v := range items {
		fields := document.VenueFields(v)
		if existing[v.ID] {
			delete(fields, "created_at")
		}
		if len(v.SourceGameURLs) > 0 {
			urls := make([]any, len(v.SourceGameURLs))
			for j, u := range v.SourceGameURLs {
				urls[j] = u
			}
			fields["source_game_urls"] = firestore.ArrayUnion(urls...)
		} else {
			delete(fields, "source_game_urls")
		}
		writes = append(writes, write{ref: refs[i], fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("upsert venues: %w", err)
	}

	return nil
}
