package hockeyvictoria

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/usecase"
)

// roundContext carries the identifiers a round page cannot tell us itself.
type roundContext struct {
	CompID    string
	FixtureID string
	Round     int
	Location  *time.Location
}

// parseRound decomposes each div.card-body fixture card. The scheduled
// instant and both team links are required; venue, score, and the details
// link are optional.
func parseRound(doc *goquery.Document, rc roundContext) ([]usecase.ExternalGameCard, []parseWarning) {
	var cards []usecase.ExternalGameCard
	var warnings []parseWarning

	doc.Find("div.card-body").Each(func(_ int, sel *goquery.Selection) {
		dateDiv := sel.Find("div.col-md.pb-3.pb-lg-0.text-center.text-md-left").First()
		if dateDiv.Length() == 0 {
			return
		}
		startsAt, ok := parseLocalDateTime(flattenedText(dateDiv), rc.Location)
		if !ok {
			warnings = append(warnings, parseWarning{Reason: "card without a parseable date", Fragment: snippet(dateDiv.Text())})
			return
		}

		teamsDiv := sel.Find("div.col-lg-3.pb-3.pb-lg-0.text-center").First()
		teamLinks := teamsDiv.Find("a")
		if teamLinks.Length() < 2 {
			warnings = append(warnings, parseWarning{Reason: "card with fewer than two team links", Fragment: snippet(sel.Text())})
			return
		}

		card := usecase.ExternalGameCard{
			Round:    rc.Round,
			StartsAt: startsAt,
		}

		home := teamLinks.Eq(0)
		away := teamLinks.Eq(1)
		card.HomeName = cleanText(home.Text())
		card.AwayName = cleanText(away.Text())
		if href, exists := home.Attr("href"); exists {
			card.HomeID = teamIDFromHref(href)
		}
		if href, exists := away.Attr("href"); exists {
			card.AwayID = teamIDFromHref(href)
		}
		if card.HomeName == "" || card.AwayName == "" {
			warnings = append(warnings, parseWarning{Reason: "card with unnamed team", Fragment: snippet(teamsDiv.Text())})
			return
		}

		venueDiv := sel.Find("div.col-md.pb-3.pb-lg-0.text-center.text-md-right.text-lg-left").First()
		if venueDiv.Length() > 0 {
			card.Venue = cleanText(venueDiv.Find("a").First().Text())
			card.VenueCode = cleanText(venueDiv.Find("div").First().Text())
		}

		scoreText := cleanText(teamsDiv.Find("div b").First().Text())
		if homeScore, awayScore, ok := parseScorePair(scoreText); ok {
			card.HomeScore = &homeScore
			card.AwayScore = &awayScore
		} else if st, found := game.StatusFromKeyword(teamsDiv.Text()); found {
			card.StatusToken = string(st)
		}

		if href, exists := sel.Find("a.btn.btn-outline-primary.btn-sm").First().Attr("href"); exists {
			card.URL = href
			card.GameID = gameIDFromHref(href)
			if card.GameID == "" {
				card.GameID = lastPathSegment(href)
			}
		}
		if card.GameID == "" {
			card.GameID = syntheticGameID(rc.CompID, rc.FixtureID, rc.Round, card.HomeName, card.AwayName)
		}

		cards = append(cards, card)
	})

	return cards, warnings
}

// syntheticGameID derives a stable id for cards without a details link. Round
// plus team names identify a fixture within a grade, so the id survives
// reschedules.
func syntheticGameID(compID, fixtureID string, round int, homeName, awayName string) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|%s|%s", compID, fixtureID, round, homeName, awayName)
	return strconv.FormatUint(h.Sum64()%10_000_000_000, 10)
}

func lastPathSegment(href string) string {
	href = strings.TrimRight(href, "/")
	if i := strings.LastIndexByte(href, '/'); i >= 0 {
		href = href[i+1:]
	}
	if href == "" {
		return ""
	}
	for _, r := range href {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return href
}
