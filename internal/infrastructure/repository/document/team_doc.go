package document

import (
	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/team"
)

// TeamFields builds the field map the teams stage owns. The ladder_* fields
// belong to the ladder stage and are written through TeamLadderFields only.
func TeamFields(t team.Team) Doc {
	d := Doc{
		"id":              t.ID,
		"name":            t.Name,
		"club_name":       t.ClubName,
		"club_id":         t.ClubID,
		"club_ref":        t.ClubRef(),
		"competition_id":  t.CompetitionID,
		"competition_ref": t.CompetitionRef(),
		"grade_id":        t.GradeID,
		"grade_ref":       t.GradeRef(),
		"season":          t.Season,
		"type":            string(t.Type),
		"gender":          string(t.Gender),
		"is_home_club":    t.IsHomeClub,
		"active":          t.Active,
	}
	putTime(d, "created_at", t.CreatedAt)
	putTime(d, "updated_at", t.UpdatedAt)
	return d
}

// TeamLadderFields builds the ladder-stage field map for one team.
func TeamLadderFields(u team.LadderUpdate) Doc {
	return Doc{
		"ladder_position":   u.Position,
		"ladder_points":     u.Points,
		"ladder_stats":      ladderStatsDoc(u.Stats),
		"ladder_updated_at": u.At.UTC(),
	}
}

func ladderStatsDoc(s team.LadderStats) Doc {
	return Doc{
		"played":          s.Played,
		"wins":            s.Wins,
		"draws":           s.Draws,
		"losses":          s.Losses,
		"byes":            s.Byes,
		"goals_for":       s.GoalsFor,
		"goals_against":   s.GoalsAgainst,
		"goal_difference": s.GoalDifference,
		"points":          s.Points,
	}
}

// TeamFromDoc rebuilds a team from its stored document.
func TeamFromDoc(id string, d Doc) team.Team {
	t := team.Team{
		ID:              id,
		Name:            getString(d, "name"),
		ClubName:        getString(d, "club_name"),
		ClubID:          getString(d, "club_id"),
		CompetitionID:   getString(d, "competition_id"),
		GradeID:         getString(d, "grade_id"),
		Season:          getString(d, "season"),
		Type:            classify.Type(getString(d, "type")),
		Gender:          classify.Gender(getString(d, "gender")),
		IsHomeClub:      getBool(d, "is_home_club"),
		Active:          getBool(d, "active"),
		LadderPosition:  getInt(d, "ladder_position"),
		LadderPoints:    getInt(d, "ladder_points"),
		LadderUpdatedAt: getTime(d, "ladder_updated_at"),
		CreatedAt:       getTime(d, "created_at"),
		UpdatedAt:       getTime(d, "updated_at"),
	}
	if stats := getDoc(d, "ladder_stats"); stats != nil {
		t.LadderStats = &team.LadderStats{
			Played:         getInt(stats, "played"),
			Wins:           getInt(stats, "wins"),
			Draws:          getInt(stats, "draws"),
			Losses:         getInt(stats, "losses"),
			Byes:           getInt(stats, "byes"),
			GoalsFor:       getInt(stats, "goals_for"),
			GoalsAgainst:   getInt(stats, "goals_against"),
			GoalDifference: getInt(stats, "goal_difference"),
			Points:         getInt(stats, "points"),
		}
	}
	return t
}
