package hockeyvictoria

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mentonehc/hvsync/internal/usecase"
)

// ladderColumns maps stat names to cell indexes. -1 means the header did not
// mention that stat.
type ladderColumns struct {
	played       int
	wins         int
	draws        int
	losses       int
	byes         int
	goalsFor     int
	goalsAgainst int
	diff         int
	points       int
}

// parseLadder extracts every row of the first pointscore table in source
// order. Column meaning comes from the table header when it spells the stats
// out; terse headers fall back to the site's fixed column order
// P,W,D,L,BYE,GF,GA,GD,PTS after the team cell.
func parseLadder(doc *goquery.Document) ([]usecase.ExternalLadderRow, []parseWarning) {
	var rows []usecase.ExternalLadderRow
	var warnings []parseWarning

	table := doc.Find("table.table").First()
	if table.Length() == 0 {
		return rows, warnings
	}
	cols, headerOK := ladderColumnsFromHeader(table)

	table.Find("tbody tr").Each(func(index int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() < 2 {
			return
		}

		first := cells.Eq(0)
		position, rest := splitLadderPosition(cleanText(first.Text()), index)

		link := first.Find("a").First()
		href, _ := link.Attr("href")
		name := cleanText(link.Text())
		if name == "" {
			name = rest
		}
		if name == "" {
			warnings = append(warnings, parseWarning{Reason: "ladder row without a team name", Fragment: snippet(tr.Text())})
			return
		}

		row := usecase.ExternalLadderRow{
			Position: position,
			TeamName: name,
			TeamID:   teamIDFromHref(href),
			TeamURL:  href,
		}

		cellInt := func(i int) int {
			if i < 0 || i >= cells.Length() {
				return 0
			}
			v, _ := parseIntText(cells.Eq(i).Text())
			return v
		}

		switch {
		case headerOK:
			row.Played = cellInt(cols.played)
			row.Wins = cellInt(cols.wins)
			row.Draws = cellInt(cols.draws)
			row.Losses = cellInt(cols.losses)
			row.Byes = cellInt(cols.byes)
			row.GoalsFor = cellInt(cols.goalsFor)
			row.GoalsAgainst = cellInt(cols.goalsAgainst)
			row.GoalDifference = cellInt(cols.diff)
			row.Points = cellInt(cols.points)
		case cells.Length() >= 10:
			row.Played = cellInt(1)
			row.Wins = cellInt(2)
			row.Draws = cellInt(3)
			row.Losses = cellInt(4)
			row.Byes = cellInt(5)
			row.GoalsFor = cellInt(6)
			row.GoalsAgainst = cellInt(7)
			row.GoalDifference = cellInt(8)
			row.Points = cellInt(9)
		default:
			warnings = append(warnings, parseWarning{Reason: "ladder row with too few cells", Fragment: snippet(tr.Text())})
			return
		}

		rows = append(rows, row)
	})

	return rows, warnings
}

func ladderColumnsFromHeader(table *goquery.Selection) (ladderColumns, bool) {
	cols := ladderColumns{
		played: -1, wins: -1, draws: -1, losses: -1, byes: -1,
		goalsFor: -1, goalsAgainst: -1, diff: -1, points: -1,
	}

	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		label := strings.ToLower(cleanText(th.Text()))
		switch {
		case strings.Contains(label, "play"):
			cols.played = i
		case strings.Contains(label, "win"):
			cols.wins = i
		case strings.Contains(label, "draw"):
			cols.draws = i
		case strings.Contains(label, "loss"):
			cols.losses = i
		case strings.Contains(label, "bye"):
			cols.byes = i
		case strings.Contains(label, "against"):
			cols.goalsAgainst = i
		case strings.Contains(label, "for"):
			cols.goalsFor = i
		case strings.Contains(label, "diff"):
			cols.diff = i
		case strings.Contains(label, "point"):
			cols.points = i
		}
	})

	return cols, cols.played >= 0 && cols.points >= 0
}

// splitLadderPosition handles first cells shaped like "3. Team Name". When no
// leading rank is present the row index supplies the position.
func splitLadderPosition(text string, index int) (int, string) {
	head, rest, found := strings.Cut(text, ".")
	if found {
		if v, err := strconv.Atoi(strings.TrimSpace(head)); err == nil && v > 0 {
			return v, cleanText(rest)
		}
	}
	return index + 1, text
}
