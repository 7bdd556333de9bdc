package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

type GradeRepository struct {
	client *firestore.Client
}

func NewGradeRepository(client *firestore.Client) *GradeRepository {
	return &GradeRepository{client: client}
}

func (r *GradeRepository) Get(ctx context.Context, id string) (grade.Grade, bool, error) {
	snap, err := r.client.Collection(colGrades).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return grade.Grade{}, false, nil
		}

		return grade.Grade{}, false, fmt.Errorf("get grade %s: %w", id, err)
	}

	return document.GradeFromDoc(snap.Ref.ID, snap.Data()), true, nil
}

func (r *GradeRepository) List(ctx context.Context) ([]grade.Grade, error) {
	var out []grade.Grade
	iter := r.client.Collection(colGrades).Documents(ctx)
	if err := iterateDocs(iter, func(id string, d document.Doc) {
		out = append(out, document.GradeFromDoc(id, d))
	}); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}

	return out, nil
}

func (r *GradeRepository) ListStale(ctx context.Context, cutoff time.Time) ([]grade.Grade, error) {
	// The collection holds a few dozen documents; filtering client-side
	// avoids an index on a field that is absent until the first check.
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var stale []grade.Grade
	for _, g := range all {
		if g.LastChecked.IsZero() || g.LastChecked.Before(cutoff) {
			stale = append(stale, g)
		}
	}

	return stale, nil
}

func (r *GradeRepository) UpsertBatch(ctx context.Context, items []grade.Grade) error {
	if len(items) == 0 {
		return nil
	}

	col := r.client.Collection(colGrades)
	refs := make([]*firestore.DocumentRef, len(items))
	for i, g := range items {
		refs[i] = col.Doc(g.ID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("upsert grades: %w", err)
	}

	writes := make([]write, 0, len(items))
	for i, g := range items {
		fields := document.GradeFields(g)
		if existing[g.ID] {
			delete(fields, "created_at")
		}
		writes = append(writes, write{ref: refs[i], fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("upsert grades: %w", err)
	}

	return nil
}

func (r *GradeRepository) TouchChecked(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	col := r.client.Collection(colGrades)
	writes := make([]write, 0, len(ids))
	for _, id := range ids {
		writes = append(writes, write{ref: col.Doc(id), fields: document.GradeCheckedFields(at)})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("touch grades checked: %w", err)
	}

	return nil
}
