package document

import (
	"github.com/mentonehc/hvsync/internal/domain/game"
)

// GameStageOwnedKeys lists the keys later stages own on a game document.
// When a fixtures walk re-upserts an existing game, backends strip these
// from the merge so a card-level score or status never regresses a result
// the results stage already recorded.
var GameStageOwnedKeys = []string{
	"status",
	"home_score",
	"away_score",
	"winner_text",
	"mentone_result",
	"results_retrieved_at",
	"participation",
	"stats_processed_for",
}

// GameFields builds the full field map for a game discovered on a round
// page. Status and scores are included so brand-new documents start in the
// state the card showed; on existing documents the backends drop the
// GameStageOwnedKeys portion.
func GameFields(g game.Game) Doc {
	d := Doc{
		"id":               g.ID,
		"competition_id":   g.CompetitionID,
		"grade_id":         g.GradeID,
		"grade_ref":        "grades/" + g.GradeID,
		"round":            g.Round,
		"venue":            g.Venue,
		"venue_field_code": g.VenueFieldCode,
		"home_team":        sideDoc(g.HomeTeam),
		"away_team":        sideDoc(g.AwayTeam),
		"team_ids":         teamIDs(g),
		"mentone_playing":  g.MentonePlaying,
		"url":              g.URL,
		"status":           string(g.Status),
	}
	putTime(d, "date", g.Date)
	if g.HomeTeam.Score != nil {
		d["home_score"] = *g.HomeTeam.Score
	}
	if g.AwayTeam.Score != nil {
		d["away_score"] = *g.AwayTeam.Score
	}
	putTime(d, "created_at", g.CreatedAt)
	putTime(d, "updated_at", g.UpdatedAt)
	return d
}

// GameResultFields builds the field map the results stage owns. Nil scores
// leave the stored scores untouched, which is what a forfeit without a
// published scoreline needs.
func GameResultFields(u game.ResultUpdate) Doc {
	d := Doc{
		"status":               string(u.Status),
		"winner_text":          u.WinnerText,
		"mentone_result":       u.MentoneResult,
		"results_retrieved_at": u.RetrievedAt.UTC(),
		"updated_at":           u.RetrievedAt.UTC(),
	}
	if u.HomeScore != nil {
		d["home_score"] = *u.HomeScore
	}
	if u.AwayScore != nil {
		d["away_score"] = *u.AwayScore
	}
	return d
}

// GameParticipationFields builds the players-stage field map. The processed
// marker is a union per backend, so it is not part of this map.
func GameParticipationFields(u game.ParticipationUpdate) Doc {
	entries := make([]Doc, 0, len(u.Entries))
	for _, a := range u.Entries {
		entries = append(entries, Doc{
			"player_id":    a.PlayerID,
			"name":         a.Name,
			"goals":        a.Goals,
			"green_cards":  a.GreenCards,
			"yellow_cards": a.YellowCards,
			"red_cards":    a.RedCards,
		})
	}
	return Doc{
		"participation": entries,
		"updated_at":    u.At.UTC(),
	}
}

func sideDoc(s game.Side) Doc {
	d := Doc{"id": s.ID, "name": s.Name}
	if ref := s.TeamRef(); ref != "" {
		d["ref"] = ref
	}
	return d
}

func teamIDs(g game.Game) []string {
	ids := make([]string, 0, 2)
	if g.HomeTeam.ID != "" {
		ids = append(ids, g.HomeTeam.ID)
	}
	if g.AwayTeam.ID != "" {
		ids = append(ids, g.AwayTeam.ID)
	}
	return ids
}

// GameFromDoc rebuilds a game from its stored document.
func GameFromDoc(id string, d Doc) game.Game {
	g := game.Game{
		ID:                 id,
		CompetitionID:      getString(d, "competition_id"),
		GradeID:            getString(d, "grade_id"),
		Round:              getInt(d, "round"),
		Date:               getTime(d, "date"),
		Venue:              getString(d, "venue"),
		VenueFieldCode:     getString(d, "venue_field_code"),
		Status:             game.Status(getString(d, "status")),
		WinnerText:         getString(d, "winner_text"),
		MentoneResult:      getString(d, "mentone_result"),
		MentonePlaying:     getBool(d, "mentone_playing"),
		URL:                getString(d, "url"),
		StatsProcessedFor:  getStringSlice(d, "stats_processed_for"),
		ResultsRetrievedAt: getTime(d, "results_retrieved_at"),
		CreatedAt:          getTime(d, "created_at"),
		UpdatedAt:          getTime(d, "updated_at"),
	}
	g.HomeTeam = sideFromDoc(getDoc(d, "home_team"), getIntPtr(d, "home_score"))
	g.AwayTeam = sideFromDoc(getDoc(d, "away_team"), getIntPtr(d, "away_score"))
	for _, entry := range getDocSlice(d, "participation") {
		g.Participation = append(g.Participation, game.Appearance{
			PlayerID:    getString(entry, "player_id"),
			Name:        getString(entry, "name"),
			Goals:       getInt(entry, "goals"),
			GreenCards:  getInt(entry, "green_cards"),
			YellowCards: getInt(entry, "yellow_cards"),
			RedCards:    getInt(entry, "red_cards"),
		})
	}
	return g
}

func sideFromDoc(d Doc, score *int) game.Side {
	return game.Side{
		ID:    getString(d, "id"),
		Name:  getString(d, "name"),
		Score: score,
	}
}
