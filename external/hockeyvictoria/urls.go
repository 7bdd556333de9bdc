package hockeyvictoria

import (
	"fmt"
	"regexp"
)

// Only the integer tokens inside these paths are treated as identifiers;
// every other part of a page is labile content.
var (
	reGradeLink  = regexp.MustCompile(`/games/(\d+)/(\d+)`)
	reRoundLink  = regexp.MustCompile(`/games/(\d+)/(\d+)/round/(\d+)`)
	reTeamLink   = regexp.MustCompile(`/games/team/(\d+)/(\d+)`)
	reGameLink   = regexp.MustCompile(`/game/(\d+)`)
	reParentComp = regexp.MustCompile(`(?:/reports/games/|/team-stats/)(\d+)`)
	rePlayerLink = regexp.MustCompile(`/games/(?:player|statistics)/([A-Za-z0-9]+)`)
	reSeasonYear = regexp.MustCompile(`(20\d{2})`)
)

const competitionsPath = "/games/"

func gradePath(compID, fixtureID string) string {
	return fmt.Sprintf("/games/%s/%s", compID, fixtureID)
}

func roundPath(compID, fixtureID string, round int) string {
	return fmt.Sprintf("/games/%s/%s/round/%d", compID, fixtureID, round)
}

func pointscorePath(compID, fixtureID string) string {
	return fmt.Sprintf("/pointscore/%s/%s", compID, fixtureID)
}

func gamePath(gameID string) string {
	return "/game/" + gameID
}

func teamStatsPath(compID, teamID string) string {
	return fmt.Sprintf("/games/team-stats/%s?team=%s", compID, teamID)
}

// gameIDFromHref pulls the numeric game id out of a details link.
func gameIDFromHref(href string) string {
	m := reGameLink.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// teamIDFromHref pulls the team id out of a /games/team/{comp}/{team} link.
func teamIDFromHref(href string) string {
	m := reTeamLink.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[2]
}

// playerIDFromHref pulls the player id out of a statistics link. Both the
// /games/player/ and /games/statistics/ shapes appear in the wild.
func playerIDFromHref(href string) string {
	m := rePlayerLink.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	return m[1]
}

// findSeasonYear returns the first four-digit 20xx year in text, or "".
func findSeasonYear(text string) string {
	return reSeasonYear.FindString(text)
}
