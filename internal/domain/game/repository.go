package game

import (
	"context"
	"time"
)

// ResultQuery selects games whose results should be fetched. Zero time
// bounds mean unbounded on that side.
type ResultQuery struct {
	Since           time.Time
	Until           time.Time
	CompetitionID   string
	HomeClubOnly    bool
	IncludeTerminal bool
	Limit           int
}

// ResultUpdate carries the fields the results stage owns. Nil scores leave
// the stored scores untouched, which matters for forfeits reported without a
// scoreline.
type ResultUpdate struct {
	GameID        string
	Status        Status
	HomeScore     *int
	AwayScore     *int
	WinnerText    string
	MentoneResult string
	RetrievedAt   time.Time
}

// ParticipationUpdate carries the fields the players stage owns: the game's
// participation list and the mark that a team's stats pass covered it.
type ParticipationUpdate struct {
	GameID           string
	Entries          []Appearance
	ProcessedForTeam string
	At               time.Time
}

// Repository persists games. UpsertBatch merges field-by-field and never
// touches result or participation fields once set; ApplyResults and
// ApplyParticipation write only their own field sets.
type Repository interface {
	Get(ctx context.Context, id string) (Game, bool, error)
	ListByTeam(ctx context.Context, teamID string) ([]Game, error)
	ListForResults(ctx context.Context, q ResultQuery) ([]Game, error)
	UpsertBatch(ctx context.Context, items []Game) error
	ApplyResults(ctx context.Context, updates []ResultUpdate) error
	ApplyParticipation(ctx context.Context, updates []ParticipationUpdate) error
}
