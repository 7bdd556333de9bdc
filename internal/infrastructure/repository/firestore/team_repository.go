package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/document"
)

type TeamRepository struct {
	client *firestore.Client
}

func NewTeamRepository(client *firestore.Client) *TeamRepository {
	return &TeamRepository{client: client}
}

func (r *TeamRepository) Get(ctx context.Context, id string) (team.Team, bool, error) {
	snap, err := r.client.Collection(colTeams).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}

		return team.Team{}, false, fmt.Errorf("get team %s: %w", id, err)
	}

	return document.TeamFromDoc(snap.Ref.ID, snap.Data()), true, nil
}

func (r *TeamRepository) List(ctx context.Context, q team.Query) ([]team.Team, error) {
	fq := r.client.Collection(colTeams).Query
	if q.CompetitionID != "" {
		fq = fq.Where("competition_id", "==", q.CompetitionID)
	}
	if q.GradeID != "" {
		fq = fq.Where("grade_id", "==", q.GradeID)
	}
	if q.HomeClubOnly {
		fq = fq.Where("is_home_club", "==", true)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	var out []team.Team
	if err := iterateDocs(fq.Documents(ctx), func(id string, d document.Doc) {
		out = append(out, document.TeamFromDoc(id, d))
	}); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	return out, nil
}

// UpsertBatch merge-sets the identity fields. Ladder fields are not in the
// map, so a teams walk never clobbers a ladder snapshot.
func (r *TeamRepository) UpsertBatch(ctx context.Context, items []team.Team) error {
	if len(items) == 0 {
		return nil
	}

	col := r.client.Collection(colTeams)
	refs := make([]*firestore.DocumentRef, len(items))
	for i, t := range items {
		refs[i] = col.Doc(t.ID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}

	writes := make([]write, 0, len(items))
	for i, t := range items {
		fields := document.TeamFields(t)
		if existing[t.ID] {
			delete(fields, "created_at")
		}
		writes = append(writes, write{ref: refs[i], fields: fields})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("upsert teams: %w", err)
	}

	return nil
}

// UpdateLadder merge-sets ladder fields onto teams that already exist.
// Ladder rows can name opponents the teams walk never stored; those are
// skipped rather than created as husk documents.
func (r *TeamRepository) UpdateLadder(ctx context.Context, updates []team.LadderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	col := r.client.Collection(colTeams)
	refs := make([]*firestore.DocumentRef, len(updates))
	for i, u := range updates {
		refs[i] = col.Doc(u.TeamID)
	}

	existing, err := existingIDs(ctx, r.client, refs)
	if err != nil {
		return fmt.Errorf("update ladder: %w", err)
	}

	writes := make([]write, 0, len(updates))
	for i, u := range updates {
		if !existing[u.TeamID] {
			continue
		}
		writes = append(writes, write{ref: refs[i], fields: document.TeamLadderFields(u)})
	}

	if err := commitWrites(ctx, r.client, writes); err != nil {
		return fmt.Errorf("update ladder: %w", err)
	}

	return nil
}
