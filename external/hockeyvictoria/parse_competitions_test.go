package hockeyvictoria

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const competitionsIndexHTML = `<html><body>
<h1>Competitions &amp; Fixtures 2025</h1>
<div class="p-4">
  <h2 class="h4">Senior Competition</h2>
  <a href="/reports/games/22000">Download full draw</a>
</div>
<div class="px-4 py-2 border-top">
  <a href="/games/22076/37393">Vic League 1 - Men</a>
</div>
<div class="px-4 py-2 border-top">
  <a href="/games/22076/37394">Vic League 1 Reserves - Men</a>
  <a href="/games/22076/37394">Vic League 1 Reserves - Men</a>
</div>
<div class="p-4">
  <h2 class="h4">Midweek Ladies 2024</h2>
</div>
<div class="px-4 py-2 border-top">
  <a href="/games/22110/37500">Pennant A</a>
  <a href="/games/22110/37999"></a>
</div>
<div class="p-4">
  <h2 class="h4">Juniors</h2>
</div>
</body></html>`

func TestParseCompetitionsIndex_GroupsGradesUnderHeadings(t *testing.T) {
	t.Parallel()

	doc := docFromHTML(t, competitionsIndexHTML)
	blocks, warnings := parseCompetitionsIndex(doc)

	if got, want := len(blocks), 2; got != want {
		t.Fatalf("block count = %d, want %d", got, want)
	}

	senior := blocks[0]
	if senior.Name != "Senior Competition" {
		t.Fatalf("first block name = %q, want %q", senior.Name, "Senior Competition")
	}
	if senior.ParentCompID != "22000" {
		t.Fatalf("first block parent comp id = %q, want %q", senior.ParentCompID, "22000")
	}
	if senior.SeasonHint != "2025" {
		t.Fatalf("first block season hint = %q, want %q (page heading year)", senior.SeasonHint, "2025")
	}
	if got, want := len(senior.Grades), 2; got != want {
		t.Fatalf("first block grade count = %d, want %d after dedupe", got, want)
	}
	if g := senior.Grades[0]; g.Name != "Vic League 1 - Men" || g.CompID != "22076" || g.FixtureID != "37393" || g.URL != "/games/22076/37393" {
		t.Fatalf("unexpected first grade: %+v", g)
	}
	if g := senior.Grades[1]; g.FixtureID != "37394" {
		t.Fatalf("second grade fixture id = %q, want %q", g.FixtureID, "37394")
	}

	ladies := blocks[1]
	if ladies.Name != "Midweek Ladies 2024" {
		t.Fatalf("second block name = %q, want %q", ladies.Name, "Midweek Ladies 2024")
	}
	if ladies.ParentCompID != "22110" {
		t.Fatalf("second block parent comp id = %q, want first grade's comp id %q", ladies.ParentCompID, "22110")
	}
	if ladies.SeasonHint != "2024" {
		t.Fatalf("second block season hint = %q, want %q (year in the block name)", ladies.SeasonHint, "2024")
	}
	if got, want := len(ladies.Grades), 1; got != want {
		t.Fatalf("second block grade count = %d, want %d", got, want)
	}

	// One warning for the nameless grade link, one for the Juniors block
	// that has neither an action link nor grades.
	if got, want := len(warnings), 2; got != want {
		t.Fatalf("warning count = %d, want %d: %+v", got, want, warnings)
	}
}

func TestParseCompetitionsIndex_GradesBeforeAnyHeadingAreIgnored(t *testing.T) {
	t.Parallel()

	doc := docFromHTML(t, `<html><body>
<div class="px-4 py-2 border-top"><a href="/games/22076/37393">Orphan Grade</a></div>
<div class="p-4"><h2 class="h4">Senior Competition</h2><a href="/reports/games/22000">Draw</a></div>
</body></html>`)
	blocks, _ := parseCompetitionsIndex(doc)

	if got, want := len(blocks), 1; got != want {
		t.Fatalf("block count = %d, want %d", got, want)
	}
	if got := len(blocks[0].Grades); got != 0 {
		t.Fatalf("grade count = %d, want 0: orphan links belong to no block", got)
	}
}

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("build document: %v", err)
	}
	return doc
}
