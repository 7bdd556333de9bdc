package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/competition"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

type CompetitionRepository struct {
	client *firestore.Client
}

func NewCompetitionRepository(client *firestore.Client) *CompetitionRepository {
	return &CompetitionRepository{client: client}
}

func (r *CompetitionRepository) Get(ctx context.Context, id string) (competition.Competition, bool, error) {
	snap, err := r.client.Collection(colCompetitions).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}

		return competition.Competition{}, false, fmt.Errorf("get competition %s: %w", id, err)
	}

	return document.CompetitionFromDoc(snap.Ref.ID, snap.Data()), true, nil
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	var out []competition.Competition
	iter := r.client.Collection(colCompetitions).Documents(ctx)
	if err := iterateDocs(iter, func(id string, d document.Doc) {
		out = append(out, document.CompetitionFromDoc(id, d))
	}); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	return out, nil
}

func (r *CompetitionRepository) UpsertBatch(ctx context.Context, items []competition.Competition) error {
	if len(items) == 0 {
		return nil
	}

	col := r.client.Collection(colCompetitions)
	refs := make([]*firestore.DocumentRef, len(items))
	for i, c := range items {
		refs[i] = col.Doc(c.ID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("upsert competitions: %w", err)
	}

	writes := make([]write, 0, len(items))
	for i, c := range items {
		fields := document.CompetitionFields(c)
		if existing[c.ID] {
			delete(fields, "created_at")
		}
		writes = append(writes, write{ref: refs[i], fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("upsert competitions: %w", err)
	}

	return nil
}
