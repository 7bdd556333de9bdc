package hockeyvictoria

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/mentonehc/hvsync/internal/usecase"
)

// parseCompetitionsIndex walks the index's containers in document order. A
// container with an h2.h4 heading opens a new competition block; containers
// that follow contribute grade links to the open block until the next
// heading. The parent competition id comes from the heading container's
// action link, with the first grade's comp id as fallback.
func parseCompetitionsIndex(doc *goquery.Document) ([]usecase.ExternalCompetitionBlock, []parseWarning) {
	var blocks []usecase.ExternalCompetitionBlock
	var warnings []parseWarning

	pageSeason := findSeasonYear(cleanText(doc.Find("h1").Text()))

	current := -1
	seen := make(map[string]struct{})

	doc.Find("div.p-4, div.px-4.py-2.border-top").Each(func(_ int, container *goquery.Selection) {
		heading := container.Find("h2.h4").First()
		if heading.Length() > 0 {
			name := cleanText(heading.Text())
			if name == "" {
				warnings = append(warnings, parseWarning{Reason: "competition heading without text", Fragment: snippet(containerHTML(container))})
				current = -1
				return
			}

			parentID := ""
			container.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
				href, _ := link.Attr("href")
				if m := reParentComp.FindStringSubmatch(href); m != nil {
					parentID = m[1]
					return false
				}
				return true
			})

			season := findSeasonYear(name)
			if season == "" {
				season = pageSeason
			}

			blocks = append(blocks, usecase.ExternalCompetitionBlock{
				Name:         name,
				ParentCompID: parentID,
				SeasonHint:   season,
			})
			current = len(blocks) - 1
			seen = make(map[string]struct{})
			return
		}

		if current < 0 {
			return
		}

		container.Find("a").Each(func(_ int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			m := reGradeLink.FindStringSubmatch(href)
			if m == nil {
				return
			}
			key := m[1] + "/" + m[2]
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}

			name := cleanText(link.Text())
			if name == "" {
				warnings = append(warnings, parseWarning{Reason: "grade link without a name", Fragment: snippet(href)})
				return
			}
			blocks[current].Grades = append(blocks[current].Grades, usecase.ExternalGradeLink{
				Name:      name,
				CompID:    m[1],
				FixtureID: m[2],
				URL:       href,
			})
		})
	})

	out := blocks[:0]
	for _, block := range blocks {
		if block.ParentCompID == "" {
			if len(block.Grades) == 0 {
				warnings = append(warnings, parseWarning{Reason: "competition block without id or grades", Fragment: snippet(block.Name)})
				continue
			}
			block.ParentCompID = block.Grades[0].CompID
		}
		out = append(out, block)
	}

	return out, warnings
}

func containerHTML(sel *goquery.Selection) string {
	html, err := sel.Html()
	if err != nil {
		return ""
	}
	return html
}
