package hockeyvictoria

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mentonehc/hvsync/internal/usecase"
)

var (
	reLeadingRowNum    = regexp.MustCompile(`^\d+\s*\.?\s*`)
	reJerseyAnnotation = regexp.MustCompile(`\(\s*#?\d+\s*\)`)
)

const fillInAnnotation = "(fill-in)"

// parseTeamStats reads a team stats page: every game link it references plus
// the roster tables. Roster rows without a statistics link get a synthetic id
// derived from the team and the player's name, so repeat runs land on the
// same document.
func parseTeamStats(doc *goquery.Document, teamID string) (usecase.ExternalTeamStats, []parseWarning) {
	var stats usecase.ExternalTeamStats
	var warnings []parseWarning

	seenGames := make(map[string]struct{})
	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := reGameLink.FindStringSubmatch(href)
		if m == nil {
			return
		}
		path := gamePath(m[1])
		if _, dup := seenGames[path]; dup {
			return
		}
		seenGames[path] = struct{}{}
		stats.GameURLs = append(stats.GameURLs, path)
	})

	seenPlayers := make(map[string]struct{})
	doc.Find("table.table").Each(func(_ int, table *goquery.Selection) {
		headers := headerTexts(table)
		if !anyHeaderEquals(headers, "player", "name", "matches", "goals") {
			return
		}
		playerCol := headerIndex(headers, "player", "name")
		if playerCol < 0 {
			warnings = append(warnings, parseWarning{Reason: "roster table without a player column", Fragment: snippet(strings.Join(headers, " "))})
			return
		}

		role := "field"
		if headerIndex(headers, "keeper", "goalie") >= 0 {
			role = "goalkeeper"
		}

		matchesCol := headerIndex(headers, "matches", "games")
		goalsCol := headerIndex(headers, "goals")
		assistsCol := headerIndex(headers, "assists")
		greenCol := headerIndex(headers, "green")
		yellowCol := headerIndex(headers, "yellow")
		redCol := headerIndex(headers, "red")

		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() <= playerCol {
				return
			}

			cell := cells.Eq(playerCol)
			name := cleanPlayerName(cell.Text())
			if name == "" || isTotalsRow(name) {
				return
			}

			href, _ := cell.Find("a").First().Attr("href")
			id := playerIDFromHref(href)
			if id == "" {
				id = fallbackPlayerID(teamID, name)
			}
			if _, dup := seenPlayers[id]; dup {
				return
			}
			seenPlayers[id] = struct{}{}

			stats.Roster = append(stats.Roster, usecase.ExternalRosterEntry{
				PlayerID:    id,
				Name:        name,
				Role:        role,
				Games:       cellInt(cells, matchesCol),
				Goals:       cellInt(cells, goalsCol),
				Assists:     cellInt(cells, assistsCol),
				GreenCards:  cellInt(cells, greenCol),
				YellowCards: cellInt(cells, yellowCol),
				RedCards:    cellInt(cells, redCol),
			})
		})
	})

	return stats, warnings
}

// headerTexts returns the lowercased header labels of a stats table.
func headerTexts(table *goquery.Selection) []string {
	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(cleanText(th.Text())))
	})
	return headers
}

// headerIndex returns the index of the first header containing any token.
func headerIndex(headers []string, tokens ...string) int {
	for i, header := range headers {
		for _, token := range tokens {
			if strings.Contains(header, token) {
				return i
			}
		}
	}
	return -1
}

// anyHeaderEquals reports whether a header label exactly equals one of the
// given labels. Distinguishes roster tables from fixtures and ladders.
func anyHeaderEquals(headers []string, labels ...string) bool {
	for _, header := range headers {
		for _, label := range labels {
			if header == label {
				return true
			}
		}
	}
	return false
}

func cellInt(cells *goquery.Selection, index int) int {
	if index < 0 || index >= cells.Length() {
		return 0
	}
	v, _ := parseIntText(cells.Eq(index).Text())
	return v
}

// cleanPlayerName strips row numbers, jersey annotations, and fill-in
// markers from a roster cell.
func cleanPlayerName(raw string) string {
	name := cleanText(raw)
	name = reLeadingRowNum.ReplaceAllString(name, "")
	name = reJerseyAnnotation.ReplaceAllString(name, "")
	name = strings.ReplaceAll(name, fillInAnnotation, "")
	return strings.Trim(cleanText(name), ", ")
}

func isTotalsRow(name string) bool {
	lower := strings.ToLower(name)
	return lower == "total" || lower == "team total"
}

// fallbackPlayerID builds a deterministic id for roster rows that carry no
// statistics link.
func fallbackPlayerID(teamID, name string) string {
	var b strings.Builder
	b.WriteString("player_")
	b.WriteString(teamID)
	b.WriteByte('_')
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
