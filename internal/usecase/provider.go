package usecase

import (
	"context"
	"time"
)

// HockeyVictoriaProvider fetches and parses source-site pages. Implementations
// own retries, rate limiting, and HTML extraction; services only see typed
// rows with instants already in UTC.
type HockeyVictoriaProvider interface {
	FetchCompetitionsIndex(ctx context.Context) ([]ExternalCompetitionBlock, error)
	FetchLadder(ctx context.Context, compID, fixtureID string) ([]ExternalLadderRow, error)
	FetchRound(ctx context.Context, compID, fixtureID string, round int) ([]ExternalGameCard, error)
	FetchGameDetail(ctx context.Context, gameID string) (ExternalGameDetail, error)
	FetchTeamStats(ctx context.Context, compID, teamID string) (ExternalTeamStats, error)
}

// ExternalGradeLink is one grade link inside a competition block.
type ExternalGradeLink struct {
	Name      string
	CompID    string
	FixtureID string
	URL       string
}

// ExternalCompetitionBlock is one competition heading with its grade links.
// SeasonHint is the four-digit year found in the heading or page headers,
// empty when neither mentions one.
type ExternalCompetitionBlock struct {
	Name         string
	ParentCompID string
	SeasonHint   string
	Grades       []ExternalGradeLink
}

// ExternalLadderRow is one row of a pointscore page, in source order.
type ExternalLadderRow struct {
	Position       int
	TeamName       string
	TeamID         string
	TeamURL        string
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

// ExternalGameCard is one fixture card on a round page. StartsAt is UTC.
type ExternalGameCard struct {
	GameID      string
	URL         string
	Round       int
	StartsAt    time.Time
	Venue       string
	VenueCode   string
	HomeName    string
	HomeID      string
	AwayName    string
	AwayID      string
	HomeScore   *int
	AwayScore   *int
	StatusToken string
}

// ExternalParticipant is one player line from a game detail page.
type ExternalParticipant struct {
	PlayerID    string
	Name        string
	Goals       int
	GreenCards  int
	YellowCards int
	RedCards    int
}

// ExternalVenueBlock is the venue section of a game detail page.
type ExternalVenueBlock struct {
	Name      string
	Address   string
	FieldCode string
	MapURL    string
}

// ExternalGameDetail is everything extractable from a game detail page. Nil
// scores mean the page showed no final score.
type ExternalGameDetail struct {
	HomeScore     *int
	AwayScore     *int
	WinnerText    string
	StatusKeyword string
	Participation []ExternalParticipant
	Venue         *ExternalVenueBlock
}

// ExternalRosterEntry is one roster row from a team stats page.
type ExternalRosterEntry struct {
	PlayerID    string
	Name        string
	Role        string
	Games       int
	Goals       int
	Assists     int
	GreenCards  int
	YellowCards int
	RedCards    int
}

// ExternalTeamStats is a team stats page: the game URLs it references plus
// the roster.
type ExternalTeamStats struct {
	GameURLs []string
	Roster   []ExternalRosterEntry
}
