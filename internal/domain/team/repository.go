package team

import "context"

// Query narrows team listings for stage selectors.
type Query struct {
	CompetitionID string
	GradeID       string
	HomeClubOnly  bool
	Limit         int
}

// Repository persists teams. UpsertBatch merges field-by-field and never
// touches ladder fields; UpdateLadder writes only ladder fields.
type Repository interface {
	Get(ctx context.Context, id string) (Team, bool, error)
	List(ctx context.Context, q Query) ([]Team, error)
	UpsertBatch(ctx context.Context, items []Team) error
	UpdateLadder(ctx context.Context, updates []LadderUpdate) error
}
