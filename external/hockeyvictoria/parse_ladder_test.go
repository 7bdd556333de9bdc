package hockeyvictoria

import "testing"

const ladderVerboseHTML = `<html><body><table class="table">
<thead><tr>
<th>Team</th><th>Played</th><th>Wins</th><th>Draws</th><th>Losses</th><th>Byes</th>
<th>Goals For</th><th>Goals Against</th><th>Goal Diff</th><th>Points</th>
</tr></thead>
<tbody>
<tr>
<td>1. <a href="/games/team/22076/337089">Mentone Hockey Club</a></td>
<td>14</td><td>11</td><td>2</td><td>1</td><td>0</td><td>38</td><td>15</td><td>23</td><td>35</td>
</tr>
<tr>
<td>2. <a href="/games/team/22076/337090">Camberwell Hockey Club</a></td>
<td>14</td><td>10</td><td>1</td><td>3</td><td>0</td><td>30</td><td>18</td><td>12</td><td>31</td>
</tr>
<tr><td>3.</td><td>14</td><td>9</td></tr>
</tbody></table></body></html>`

const ladderPositionalHTML = `<html><body><table class="table">
<thead><tr>
<th>Team</th><th>P</th><th>W</th><th>D</th><th>L</th><th>BYE</th><th>GF</th><th>GA</th><th>GD</th><th>PTS</th>
</tr></thead>
<tbody>
<tr>
<td>5. <a href="/games/team/22076/337095">Footscray</a></td>
<td>14</td><td>3</td><td>2</td><td>9</td><td>0</td><td>12</td><td>29</td><td>−17</td><td>11</td>
</tr>
<tr><td>6. <a href="/games/team/22076/337096">Stragglers</a></td><td>14</td></tr>
</tbody></table></body></html>`

func TestParseLadder_MapsVerboseHeaders(t *testing.T) {
	t.Parallel()

	rows, warnings := parseLadder(docFromHTML(t, ladderVerboseHTML))

	if got, want := len(rows), 2; got != want {
		t.Fatalf("row count = %d, want %d", got, want)
	}

	top := rows[0]
	if top.Position != 1 {
		t.Fatalf("position = %d, want 1", top.Position)
	}
	if top.TeamName != "Mentone Hockey Club" {
		t.Fatalf("team name = %q, want %q", top.TeamName, "Mentone Hockey Club")
	}
	if top.TeamID != "337089" {
		t.Fatalf("team id = %q, want %q", top.TeamID, "337089")
	}
	if top.TeamURL != "/games/team/22076/337089" {
		t.Fatalf("team url = %q", top.TeamURL)
	}
	if top.Played != 14 || top.Wins != 11 || top.Draws != 2 || top.Losses != 1 || top.Byes != 0 {
		t.Fatalf("unexpected record: %+v", top)
	}
	if top.GoalsFor != 38 || top.GoalsAgainst != 15 || top.GoalDifference != 23 || top.Points != 35 {
		t.Fatalf("unexpected goal stats: %+v", top)
	}
	if rows[1].Position != 2 || rows[1].Points != 31 {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}

	// The third row names no team at all.
	if got, want := len(warnings), 1; got != want {
		t.Fatalf("warning count = %d, want %d: %+v", got, want, warnings)
	}
}

func TestParseLadder_FallsBackToPositionalColumns(t *testing.T) {
	t.Parallel()

	rows, warnings := parseLadder(docFromHTML(t, ladderPositionalHTML))

	if got, want := len(rows), 1; got != want {
		t.Fatalf("row count = %d, want %d", got, want)
	}

	row := rows[0]
	if row.Position != 5 {
		t.Fatalf("position = %d, want 5", row.Position)
	}
	if row.Played != 14 || row.Wins != 3 || row.Draws != 2 || row.Losses != 9 || row.Byes != 0 {
		t.Fatalf("unexpected record: %+v", row)
	}
	if row.GoalsFor != 12 || row.GoalsAgainst != 29 || row.Points != 11 {
		t.Fatalf("unexpected goal stats: %+v", row)
	}
	if row.GoalDifference != -17 {
		t.Fatalf("goal difference = %d, want -17 (Unicode minus in source)", row.GoalDifference)
	}

	// The short row cannot be read positionally.
	if got, want := len(warnings), 1; got != want {
		t.Fatalf("warning count = %d, want %d: %+v", got, want, warnings)
	}
}

func TestParseLadder_NoTableYieldsNothing(t *testing.T) {
	t.Parallel()

	rows, warnings := parseLadder(docFromHTML(t, `<html><body><p>Ladder not yet published.</p></body></html>`))
	if len(rows) != 0 || len(warnings) != 0 {
		t.Fatalf("got %d rows and %d warnings from an empty page", len(rows), len(warnings))
	}
}
