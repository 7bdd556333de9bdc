package document

import (
	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/player"
)

// PlayerFields builds the full player document. The players stage owns all
// of it; the service layer read-merges before writing, so whole-field
// replacement here is safe.
func PlayerFields(p player.Player) Doc {
	teams := make([]Doc, 0, len(p.Teams))
	for _, m := range p.Teams {
		teams = append(teams, Doc{
			"team_id":    m.TeamID,
			"team_name":  m.TeamName,
			"team_ref":   "teams/" + m.TeamID,
			"grade_id":   m.GradeID,
			"grade_name": m.GradeName,
		})
	}
	participation := make([]Doc, 0, len(p.Participation))
	for _, a := range p.Participation {
		participation = append(participation, Doc{
			"game_id":      a.GameID,
			"team_id":      a.TeamID,
			"goals":        a.Goals,
			"green_cards":  a.GreenCards,
			"yellow_cards": a.YellowCards,
			"red_cards":    a.RedCards,
		})
	}

	d := Doc{
		"id":            p.ID,
		"name":          p.Name,
		"role":          string(p.Role),
		"gender":        string(p.Gender),
		"teams":         teams,
		"stats":         playerStatsDoc(p.Stats),
		"participation": participation,
	}
	putTime(d, "created_at", p.CreatedAt)
	putTime(d, "updated_at", p.UpdatedAt)
	return d
}

func playerStatsDoc(s player.Stats) Doc {
	return Doc{
		"matches":      s.Matches,
		"goals":        s.Goals,
		"assists":      s.Assists,
		"green_cards":  s.GreenCards,
		"yellow_cards": s.YellowCards,
		"red_cards":    s.RedCards,
	}
}

// PlayerFromDoc rebuilds a player from its stored document.
func PlayerFromDoc(id string, d Doc) player.Player {
	p := player.Player{
		ID:        id,
		Name:      getString(d, "name"),
		Role:      player.Role(getString(d, "role")),
		Gender:    classify.Gender(getString(d, "gender")),
		CreatedAt: getTime(d, "created_at"),
		UpdatedAt: getTime(d, "updated_at"),
	}
	for _, m := range getDocSlice(d, "teams") {
		p.Teams = append(p.Teams, player.TeamMembership{
			TeamID:    getString(m, "team_id"),
			TeamName:  getString(m, "team_name"),
			GradeID:   getString(m, "grade_id"),
			GradeName: getString(m, "grade_name"),
		})
	}
	for _, a := range getDocSlice(d, "participation") {
		p.Participation = append(p.Participation, player.Appearance{
			GameID:      getString(a, "game_id"),
			TeamID:      getString(a, "team_id"),
			Goals:       getInt(a, "goals"),
			GreenCards:  getInt(a, "green_cards"),
			YellowCards: getInt(a, "yellow_cards"),
			RedCards:    getInt(a, "red_cards"),
		})
	}
	if stats := getDoc(d, "stats"); stats != nil {
		p.Stats = player.Stats{
			Matches:     getInt(stats, "matches"),
			Goals:       getInt(stats, "goals"),
			Assists:     getInt(stats, "assists"),
			GreenCards:  getInt(stats, "green_cards"),
			YellowCards: getInt(stats, "yellow_cards"),
			RedCards:    getInt(stats, "red_cards"),
		}
	}
	return p
}
