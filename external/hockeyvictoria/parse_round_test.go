package hockeyvictoria

import (
	"testing"
	"time"
)

const roundPageHTML = `<html><body>
<div class="card-body">
  <div class="row">
    <div class="col-md pb-3 pb-lg-0 text-center text-md-left">
      <div>Sat 26 Apr 2025<br>12:00</div>
    </div>
    <div class="col-md pb-3 pb-lg-0 text-center text-md-right text-lg-left">
      <a href="/venues/128">Mentone Grammar Playing Fields</a>
      <div>MGPF1</div>
    </div>
    <div class="col-lg-3 pb-3 pb-lg-0 text-center">
      <a href="/games/team/22076/337089">Mentone Hockey Club</a>
      <div><b>3 - 1</b></div>
      <a href="/games/team/22076/337090">Camberwell Hockey Club</a>
    </div>
    <a class="btn btn-outline-primary btn-sm" href="/game/2048530">Details</a>
  </div>
</div>
<div class="card-body">
  <div class="col-md pb-3 pb-lg-0 text-center text-md-left">Mon 20 Jan 2025<br>19:30</div>
  <div class="col-lg-3 pb-3 pb-lg-0 text-center">
    <a href="/games/team/22076/337089">Mentone Hockey Club</a>
    <div>Forfeit</div>
    <a href="/games/team/22076/337091">Doncaster</a>
  </div>
</div>
<div class="card-body">
  <div class="col-md pb-3 pb-lg-0 text-center text-md-left">Time TBC</div>
  <div class="col-lg-3 pb-3 pb-lg-0 text-center">
    <a href="/games/team/22076/337089">Mentone Hockey Club</a>
    <a href="/games/team/22076/337092">Essendon</a>
  </div>
</div>
</body></html>`

func TestParseRound_ReadsFixtureCards(t *testing.T) {
	t.Parallel()

	rc := roundContext{CompID: "22076", FixtureID: "37393", Round: 7, Location: melbourneForTest(t)}
	cards, warnings := parseRound(docFromHTML(t, roundPageHTML), rc)

	if got, want := len(cards), 2; got != want {
		t.Fatalf("card count = %d, want %d", got, want)
	}

	played := cards[0]
	if played.GameID != "2048530" {
		t.Fatalf("game id = %q, want %q", played.GameID, "2048530")
	}
	if played.URL != "/game/2048530" {
		t.Fatalf("game url = %q", played.URL)
	}
	if played.Round != 7 {
		t.Fatalf("round = %d, want 7", played.Round)
	}
	// 12:00 in Melbourne outside daylight saving is 02:00 UTC.
	if want := time.Date(2025, time.April, 26, 2, 0, 0, 0, time.UTC); !played.StartsAt.Equal(want) {
		t.Fatalf("starts at = %v, want %v", played.StartsAt, want)
	}
	if played.HomeName != "Mentone Hockey Club" || played.AwayName != "Camberwell Hockey Club" {
		t.Fatalf("unexpected team names: %q vs %q", played.HomeName, played.AwayName)
	}
	if played.HomeID != "337089" || played.AwayID != "337090" {
		t.Fatalf("unexpected team ids: %q vs %q", played.HomeID, played.AwayID)
	}
	if played.Venue != "Mentone Grammar Playing Fields" || played.VenueCode != "MGPF1" {
		t.Fatalf("venue = %q code = %q", played.Venue, played.VenueCode)
	}
	if played.HomeScore == nil || played.AwayScore == nil {
		t.Fatalf("scores missing: %+v", played)
	}
	if *played.HomeScore != 3 || *played.AwayScore != 1 {
		t.Fatalf("score = %d-%d, want 3-1", *played.HomeScore, *played.AwayScore)
	}
	if played.StatusToken != "" {
		t.Fatalf("status token = %q, want empty when a score is shown", played.StatusToken)
	}

	forfeited := cards[1]
	// 19:30 during daylight saving is 08:30 UTC.
	if want := time.Date(2025, time.January, 20, 8, 30, 0, 0, time.UTC); !forfeited.StartsAt.Equal(want) {
		t.Fatalf("starts at = %v, want %v", forfeited.StartsAt, want)
	}
	if forfeited.HomeScore != nil || forfeited.AwayScore != nil {
		t.Fatalf("forfeit card should carry no score: %+v", forfeited)
	}
	if forfeited.StatusToken != "forfeit" {
		t.Fatalf("status token = %q, want %q", forfeited.StatusToken, "forfeit")
	}
	if forfeited.GameID == "" {
		t.Fatal("card without a details link needs a synthetic game id")
	}
	if want := syntheticGameID("22076", "37393", 7, "Mentone Hockey Club", "Doncaster"); forfeited.GameID != want {
		t.Fatalf("synthetic game id = %q, want %q", forfeited.GameID, want)
	}

	// The third card has no parseable kick-off time.
	if got, want := len(warnings), 1; got != want {
		t.Fatalf("warning count = %d, want %d: %+v", got, want, warnings)
	}
}

func TestSyntheticGameID_Deterministic(t *testing.T) {
	t.Parallel()

	a := syntheticGameID("22076", "37393", 4, "Mentone Hockey Club", "Doncaster")
	b := syntheticGameID("22076", "37393", 4, "Mentone Hockey Club", "Doncaster")
	if a != b {
		t.Fatalf("same inputs produced %q and %q", a, b)
	}
	if c := syntheticGameID("22076", "37393", 5, "Mentone Hockey Club", "Doncaster"); c == a {
		t.Fatal("different rounds should produce different ids")
	}
	for _, r := range a {
		if r < '0' || r > '9' {
			t.Fatalf("synthetic id %q is not numeric", a)
		}
	}
}

func melbourneForTest(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Melbourne")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}
	return loc
}
