package game

import (
	"strings"
	"time"
)

// Status tracks a game through its lifecycle. Scraped pages only ever move a
// game forward from scheduled; terminal states are not revisited unless a
// caller forces it.
type Status string

const (
	StatusScheduled      Status = "scheduled"
	StatusCompleted      Status = "completed"
	StatusForfeit        Status = "forfeit"
	StatusCancelled      Status = "cancelled"
	StatusPostponed      Status = "postponed"
	StatusAbandoned      Status = "abandoned"
	StatusWashedOut      Status = "washed out"
	StatusUnknownOutcome Status = "unknown_outcome"
)

// Terminal reports whether the status ends the results lifecycle.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusForfeit, StatusCancelled, StatusAbandoned, StatusWashedOut:
		return true
	}

	return false
}

// Recheckable reports whether a later results run should fetch the game
// again.
func (s Status) Recheckable() bool {
	switch s {
	case StatusScheduled, StatusPostponed, StatusUnknownOutcome:
		return true
	}

	return false
}

// StatusFromKeyword maps a special-status token observed on a page to a
// Status. The match is case-insensitive contains, so "FORFEIT - away team"
// still resolves.
func StatusFromKeyword(text string) (Status, bool) {
	lower := strings.ToLower(text)
	for _, s := range []Status{StatusForfeit, StatusCancelled, StatusPostponed, StatusAbandoned, StatusWashedOut} {
		if strings.Contains(lower, string(s)) {
			return s, true
		}
	}

	return "", false
}

// Outcomes from the focus club's point of view.
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

// Side embeds one team of a game.
type Side struct {
	ID    string
	Name  string
	Score *int
}

// TeamRef returns the document path of the side's team, empty when the side
// has no known id.
func (s Side) TeamRef() string {
	if s.ID == "" {
		return ""
	}

	return "teams/" + s.ID
}

// Appearance is one player's line in a game's participation list.
type Appearance struct {
	PlayerID    string
	Name        string
	Goals       int
	GreenCards  int
	YellowCards int
	RedCards    int
}

// Game is one fixture entry, keyed by the Hockey Victoria game id from the
// detail URL. Date is a UTC instant. Result fields are owned by the results
// stage, participation fields by the players stage, everything else by the
// games stage.
type Game struct {
	ID             string
	CompetitionID  string
	GradeID        string
	Round          int
	Date           time.Time
	Venue          string
	VenueFieldCode string
	HomeTeam       Side
	AwayTeam       Side
	Status         Status
	WinnerText     string
	MentoneResult  string
	MentonePlaying bool
	URL            string

	Participation     []Appearance
	StatsProcessedFor []string

	ResultsRetrievedAt time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ProcessedFor reports whether the players stage has already extracted this
// game's participation on behalf of the given team.
func (g Game) ProcessedFor(teamID string) bool {
	for _, id := range g.StatsProcessedFor {
		if id == teamID {
			return true
		}
	}

	return false
}

// ResultFor derives the focus club's outcome from a final score. homeIsFocus
// and awayIsFocus say which side, if any, belongs to the focus club; an
// all-focus game reads from the home side.
func ResultFor(homeScore, awayScore int, homeIsFocus, awayIsFocus bool) string {
	var ours, theirs int
	switch {
	case homeIsFocus:
		ours, theirs = homeScore, awayScore
	case awayIsFocus:
		ours, theirs = awayScore, homeScore
	default:
		return ""
	}

	switch {
	case ours > theirs:
		return ResultWin
	case ours < theirs:
		return ResultLoss
	}

	return ResultDraw
}
