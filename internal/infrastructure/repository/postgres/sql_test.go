package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/domain/team"
)

func TestMergeUpsertSuffix(t *testing.T) {
	t.Run("strips only created_at by default", func(t *testing.T) {
		got := mergeUpsertSuffix("clubs")
		want := "ON CONFLICT (id) DO UPDATE SET doc = clubs.doc || (EXCLUDED.doc - 'created_at'), updated_at = EXCLUDED.updated_at"
		if got != want {
			t.Fatalf("unexpected suffix:\n got %s\nwant %s", got, want)
		}
	})

	t.Run("strips stage-owned keys", func(t *testing.T) {
		got := mergeUpsertSuffix("games", "status", "home_score")
		want := "ON CONFLICT (id) DO UPDATE SET doc = games.doc || (EXCLUDED.doc - 'created_at' - 'status' - 'home_score'), updated_at = EXCLUDED.updated_at"
		if got != want {
			t.Fatalf("unexpected suffix:\n got %s\nwant %s", got, want)
		}
	})
}

func TestBuildResultsQuery(t *testing.T) {
	t.Run("full filter set", func(t *testing.T) {
		since := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		query, args, err := buildResultsQuery(game.ResultQuery{
			Since:         since,
			CompetitionID: "22000",
			HomeClubOnly:  true,
			Limit:         50,
		})
		if err != nil {
			t.Fatalf("build query: %v", err)
		}

		want := "SELECT id, doc FROM games" +
			" WHERE doc->>'status' = ANY($1)" +
			" AND (doc->>'date')::timestamptz >= $2" +
			" AND doc->>'competition_id' = $3" +
			" AND (doc->>'mentone_playing')::boolean" +
			" ORDER BY (doc->>'date')::timestamptz, id LIMIT 50"
		if query != want {
			t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
		}
		if len(args) != 3 {
			t.Fatalf("expected 3 args, got %d", len(args))
		}
		bound, ok := args[1].(time.Time)
		if !ok || !bound.Equal(since) {
			t.Fatalf("expected since bound %v, got %v", since, args[1])
		}
	})

	t.Run("include terminal drops status filter", func(t *testing.T) {
		query, args, err := buildResultsQuery(game.ResultQuery{IncludeTerminal: true})
		if err != nil {
			t.Fatalf("build query: %v", err)
		}

		want := "SELECT id, doc FROM games ORDER BY (doc->>'date')::timestamptz, id"
		if query != want {
			t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
		}
		if len(args) != 0 {
			t.Fatalf("expected no args, got %d", len(args))
		}
	})
}

func TestBuildTeamGamesQuery(t *testing.T) {
	query, args, err := buildTeamGamesQuery("337089")
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	want := "SELECT id, doc FROM games WHERE doc->'team_ids' @> $1::jsonb ORDER BY (doc->>'date')::timestamptz, id"
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	if args[0] != `["337089"]` {
		t.Fatalf("unexpected membership arg: %v", args[0])
	}
}

func TestBuildTeamListQuery(t *testing.T) {
	query, args, err := buildTeamListQuery(team.Query{
		GradeID:      "37393",
		HomeClubOnly: true,
		Limit:        5,
	})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	want := "SELECT id, doc FROM teams WHERE doc->>'grade_id' = $1 AND (doc->>'is_home_club')::boolean ORDER BY id LIMIT 5"
	if query != want {
		t.Fatalf("unexpected query:\n got %s\nwant %s", query, want)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
}

func TestDocRowDecode(t *testing.T) {
	t.Run("decodes stored json", func(t *testing.T) {
		row := docRow{ID: "22000", Doc: []byte(`{"name":"Senior Competition","active":true}`)}
		d, err := row.decode()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if d["name"] != "Senior Competition" {
			t.Fatalf("unexpected name: %v", d["name"])
		}
	})

	t.Run("reports malformed json", func(t *testing.T) {
		row := docRow{ID: "22000", Doc: []byte(`{"name":`)}
		if _, err := row.decode(); err == nil {
			t.Fatalf("expected decode error")
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if isNotFound(sql.ErrConnDone) {
		t.Fatalf("expected false for unrelated error")
	}
}
