package team

import (
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
)

// Team is one side in a grade, keyed by the Hockey Victoria team id (a
// string of digits). Ladder fields are a snapshot owned by the ladder stage;
// everything else is owned by the teams stage.
type Team struct {
	ID            string
	Name          string
	ClubName      string
	ClubID        string
	CompetitionID string
	GradeID       string
	Season        string
	Type          classify.Type
	Gender        classify.Gender
	IsHomeClub    bool
	Active        bool

	LadderPosition  int
	LadderPoints    int
	LadderStats     *LadderStats
	LadderUpdatedAt time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClubRef returns the document path of the owning club.
func (t Team) ClubRef() string { return "clubs/" + t.ClubID }

// CompetitionRef returns the document path of the owning competition.
func (t Team) CompetitionRef() string { return "competitions/" + t.CompetitionID }

// GradeRef returns the document path of the owning grade.
func (t Team) GradeRef() string { return "grades/" + t.GradeID }

// LadderStats is the counting part of a ladder row.
type LadderStats struct {
	Played         int
	Wins           int
	Draws          int
	Losses         int
	Byes           int
	GoalsFor       int
	GoalsAgainst   int
	GoalDifference int
	Points         int
}

// Consistent reports whether the played count accounts for every recorded
// outcome.
func (s LadderStats) Consistent() bool {
	return s.Played == s.Wins+s.Draws+s.Losses+s.Byes
}

// LadderUpdate carries the fields the ladder stage is allowed to write on a
// team. Repositories must leave every other field untouched when applying
// it.
type LadderUpdate struct {
	TeamID   string
	Position int
	Points   int
	Stats    LadderStats
	At       time.Time
}
