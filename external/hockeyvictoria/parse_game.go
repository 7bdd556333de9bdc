package hockeyvictoria

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/usecase"
)

var (
	reVenueLabel = regexp.MustCompile(`(?i)venue`)
	reFieldLabel = regexp.MustCompile(`(?i)field`)
)

// parseGameDetail extracts whatever a game page offers: a final score in the
// prominent heading, a winner sentence, a special-status keyword, the venue
// block, and per-player participation tables. Absent parts stay zero-valued.
func parseGameDetail(doc *goquery.Document) (usecase.ExternalGameDetail, []parseWarning) {
	var detail usecase.ExternalGameDetail
	var warnings []parseWarning

	scoreText := cleanText(doc.Find("h1.h2.mb-0").First().Text())
	if home, away, ok := parseScorePair(scoreText); ok {
		detail.HomeScore = &home
		detail.AwayScore = &away
	}

	doc.Find("h2.h4").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := cleanText(sel.Text())
		lower := strings.ToLower(text)
		if strings.Contains(lower, "win") || strings.Contains(lower, "drew") {
			detail.WinnerText = text
			return false
		}
		return true
	})

	// Special terms only matter when the page shows no outcome of its own.
	if detail.HomeScore == nil && detail.WinnerText == "" {
		if st, ok := game.StatusFromKeyword(doc.Text()); ok {
			detail.StatusKeyword = string(st)
		}
	}

	detail.Venue = parseVenueBlock(doc)

	participation, participationWarnings := parseParticipation(doc)
	detail.Participation = participation
	warnings = append(warnings, participationWarnings...)

	return detail, warnings
}

// parseParticipation reads the player tables, one per side, and returns every
// row that carries a source player id.
func parseParticipation(doc *goquery.Document) ([]usecase.ExternalParticipant, []parseWarning) {
	var entries []usecase.ExternalParticipant
	var warnings []parseWarning

	doc.Find("table.table").Each(func(_ int, table *goquery.Selection) {
		headers := headerTexts(table)
		playerCol := headerIndex(headers, "player", "name")
		if playerCol < 0 {
			return
		}
		goalsCol := headerIndex(headers, "goals")
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
				warnings = append(warnings, parseWarning{Reason: "participation row without a player id", Fragment: snippet(name)})
				return
			}

			entries = append(entries, usecase.ExternalParticipant{
				PlayerID:    id,
				Name:        name,
				Goals:       cellInt(cells, goalsCol),
				GreenCards:  cellInt(cells, greenCol),
				YellowCards: cellInt(cells, yellowCol),
				RedCards:    cellInt(cells, redCol),
			})
		})
	})

	return entries, warnings
}

// parseVenueBlock locates the labelled venue section. The name is the label
// container's text with the label word and the address line removed.
func parseVenueBlock(doc *goquery.Document) *usecase.ExternalVenueBlock {
	labels := innermostDivsMatching(doc.Selection, reVenueLabel)
	if len(labels) == 0 {
		return nil
	}
	label := labels[0]
	row := label.Closest("div.row")
	if row.Length() == 0 {
		return nil
	}

	container := label.Parent()
	address := cleanText(container.Find("div.font-size-sm").First().Text())

	name := cleanText(container.Text())
	if address != "" {
		name = cleanText(strings.Replace(name, address, "", 1))
	}
	name = cleanText(reVenueLabel.ReplaceAllString(name, " "))
	if name == "" {
		return nil
	}

	block := &usecase.ExternalVenueBlock{
		Name:    name,
		Address: address,
	}

	// A venue name like "Playing Fields" also matches the field label, so
	// only blocks outside the venue container count.
	for _, fieldLabel := range innermostDivsMatching(row, reFieldLabel) {
		if withinSubtree(fieldLabel, container) {
			continue
		}
		block.FieldCode = cleanText(reFieldLabel.ReplaceAllString(fieldLabel.Parent().Text(), " "))
		break
	}

	row.Find("a[href*='maps.google'], a[href*='google.com/maps']").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		if href, exists := link.Attr("href"); exists {
			block.MapURL = href
			return false
		}
		return true
	})

	return block
}

// innermostDivsMatching returns, in document order, every div whose text
// matches re while no child div's text does.
func innermostDivsMatching(root *goquery.Selection, re *regexp.Regexp) []*goquery.Selection {
	var found []*goquery.Selection
	root.Find("div").Each(func(_ int, d *goquery.Selection) {
		if !re.MatchString(d.Text()) {
			return
		}
		deeper := false
		d.Find("div").EachWithBreak(func(_ int, child *goquery.Selection) bool {
			if re.MatchString(child.Text()) {
				deeper = true
				return false
			}
			return true
		})
		if deeper {
			return
		}
		found = append(found, d)
	})
	return found
}

// withinSubtree reports whether sel sits at or below root.
func withinSubtree(sel, root *goquery.Selection) bool {
	if sel.Length() == 0 || root.Length() == 0 {
		return false
	}
	top := root.Nodes[0]
	for n := sel.Nodes[0]; n != nil; n = n.Parent {
		if n == top {
			return true
		}
	}
	return false
}
