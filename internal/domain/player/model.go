package player

import (
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
)

// Role distinguishes roster table kinds on the source site.
type Role string

const (
	RoleField      Role = "field"
	RoleGoalkeeper Role = "goalkeeper"
)

// TeamMembership records one team a player has appeared for, with enough
// grade context to render without joins.
type TeamMembership struct {
	TeamID    string
	TeamName  string
	GradeID   string
	GradeName string
}

// Appearance is one game's worth of stats for a player.
type Appearance struct {
	GameID      string
	TeamID      string
	Goals       int
	GreenCards  int
	YellowCards int
	RedCards    int
}

// Stats aggregates a player's appearances. Matches counts appearances;
// every other counter is a sum over them. Assists is kept for the dashboard
// but the source site does not publish it.
type Stats struct {
	Matches     int
	Goals       int
	Assists     int
	GreenCards  int
	YellowCards int
	RedCards    int
}

// Player is keyed by the Hockey Victoria player id. A player may belong to
// several teams across grades; the participation list is the source of truth
// and Stats is always recomputed from it.
type Player struct {
	ID            string
	Name          string
	Role          Role
	Gender        classify.Gender
	Teams         []TeamMembership
	Stats         Stats
	Participation []Appearance
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AddTeam records a membership unless the team is already listed.
func (p *Player) AddTeam(m TeamMembership) {
	for _, existing := range p.Teams {
		if existing.TeamID == m.TeamID {
			return
		}
	}
	p.Teams = append(p.Teams, m)
}

// MergeAppearances folds incoming appearances into existing ones. An
// incoming entry replaces the stored entry for the same game and team, so
// re-processing a game never double-counts.
func MergeAppearances(existing, incoming []Appearance) []Appearance {
	merged := make([]Appearance, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, a := range merged {
		index[a.GameID+"|"+a.TeamID] = i
	}
	for _, a := range incoming {
		if i, ok := index[a.GameID+"|"+a.TeamID]; ok {
			merged[i] = a
			continue
		}
		index[a.GameID+"|"+a.TeamID] = len(merged)
		merged = append(merged, a)
	}

	return merged
}

// StatsFrom recomputes the aggregate counters from a participation list.
func StatsFrom(apps []Appearance) Stats {
	s := Stats{Matches: len(apps)}
	for _, a := range apps {
		s.Goals += a.Goals
		s.GreenCards += a.GreenCards
		s.YellowCards += a.YellowCards
		s.RedCards += a.RedCards
	}

	return s
}
