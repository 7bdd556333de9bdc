package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/player"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/memory"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

var playerSyncNow = time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

type playerSyncFixture struct {
	provider   *fakeProvider
	teamRepo   *memory.TeamRepository
	gradeRepo  *memory.GradeRepository
	gameRepo   *memory.GameRepository
	playerRepo *memory.PlayerRepository
	svc        *PlayerSyncService
}

func newPlayerSyncFixture(t *testing.T) playerSyncFixture {
	t.Helper()
	f := playerSyncFixture{
		provider:   newFakeProvider(),
		teamRepo:   memory.NewTeamRepository(),
		gradeRepo:  memory.NewGradeRepository(),
		gameRepo:   memory.NewGameRepository(),
		playerRepo: memory.NewPlayerRepository(),
	}

	err := f.gradeRepo.UpsertBatch(context.Background(), []grade.Grade{
		{ID: "30858", CompetitionID: "21935", Name: "Premier League - Men", Season: "2025"},
	})
	if err != nil {
		t.Fatalf("seed grades: %v", err)
	}
	err = f.teamRepo.UpsertBatch(context.Background(), []team.Team{{
		ID:            "337089",
		Name:          "Mentone Hockey Club - Premier League - Men",
		ClubID:        "mentone",
		CompetitionID: "21935",
		GradeID:       "30858",
		Gender:        classify.GenderMen,
		IsHomeClub:    true,
		Active:        true,
	}})
	if err != nil {
		t.Fatalf("seed teams: %v", err)
	}
	err = f.gameRepo.UpsertBatch(context.Background(), []game.Game{
		{
			ID:             "6525425",
			CompetitionID:  "21935",
			GradeID:        "30858",
			Date:           playerSyncNow.AddDate(0, 0, -7),
			Status:         game.StatusCompleted,
			MentonePlaying: true,
			URL:            "https://www.hockeyvictoria.org.au/game/6525425",
		},
		{
			ID:             "6525426",
			CompetitionID:  "21935",
			GradeID:        "30858",
			Date:           playerSyncNow.AddDate(0, 0, 7),
			Status:         game.StatusScheduled,
			MentonePlaying: true,
		},
	})
	if err != nil {
		t.Fatalf("seed games: %v", err)
	}

	f.provider.teamStats["21935_337089"] = ExternalTeamStats{
		GameURLs: []string{
			"https://www.hockeyvictoria.org.au/game/6525425",
			"https://www.hockeyvictoria.org.au/game/6525426",
			"https://www.hockeyvictoria.org.au/game/9999999",
		},
		Roster: []ExternalRosterEntry{
			{PlayerID: "412345", Name: "Alex Wilson", Role: "field", Games: 10, Goals: 5},
			{PlayerID: "412346", Name: "Sam Taylor", Role: "goalkeeper", Games: 9},
		},
	}
	f.provider.details["6525425"] = ExternalGameDetail{
		HomeScore: intPtr(3),
		AwayScore: intPtr(1),
		Participation: []ExternalParticipant{
			{PlayerID: "412345", Name: "Alex Wilson", Goals: 2, GreenCards: 1},
			{PlayerID: "498765", Name: "Jordan Reid", Goals: 1},
		},
	}

	f.svc = NewPlayerSyncService(f.provider, f.teamRepo, f.gradeRepo, f.gameRepo, f.playerRepo, PlayerSyncConfig{}, logging.NewNop())
	f.svc.now = func() time.Time { return playerSyncNow }

	return f
}

func TestPlayerSyncService_Run(t *testing.T) {
	t.Parallel()

	f := newPlayerSyncFixture(t)
	result, err := f.svc.Run(context.Background(), PlayerSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 2 || result.ErrorCount != 0 {
		t.Fatalf("expected 2 roster players, got=%+v", result)
	}

	// Only the completed, unprocessed game page is fetched: the scheduled
	// game and the unknown one are deferred.
	if f.provider.callCount("detail:6525425") != 1 {
		t.Fatal("expected the completed game page fetched once")
	}
	if f.provider.callCount("detail:6525426") != 0 || f.provider.callCount("detail:9999999") != 0 {
		t.Fatal("scheduled or unknown games must not be fetched")
	}

	alex, found, err := f.playerRepo.Get(context.Background(), "412345")
	if err != nil || !found {
		t.Fatalf("roster player missing: found=%v err=%v", found, err)
	}
	if alex.Name != "Alex Wilson" || alex.Role != player.RoleField || alex.Gender != classify.GenderMen {
		t.Fatalf("unexpected player: %+v", alex)
	}
	if len(alex.Teams) != 1 || alex.Teams[0].GradeName != "Premier League - Men" {
		t.Fatalf("membership should carry grade context: %+v", alex.Teams)
	}
	if len(alex.Participation) != 1 || alex.Participation[0].Goals != 2 {
		t.Fatalf("unexpected participation: %+v", alex.Participation)
	}
	if alex.Stats.Matches != 1 || alex.Stats.Goals != 2 || alex.Stats.GreenCards != 1 {
		t.Fatalf("stats are sums over participation: %+v", alex.Stats)
	}

	sam, _, err := f.playerRepo.Get(context.Background(), "412346")
	if err != nil {
		t.Fatalf("Get goalkeeper error: %v", err)
	}
	if sam.Role != player.RoleGoalkeeper {
		t.Fatalf("expected goalkeeper role, got=%q", sam.Role)
	}

	// The opponent on the game page lands in the game's participation list
	// but not in the player collection.
	updated, _, err := f.gameRepo.Get(context.Background(), "6525425")
	if err != nil {
		t.Fatalf("Get game error: %v", err)
	}
	if len(updated.Participation) != 2 {
		t.Fatalf("expected both page entries on the game, got=%+v", updated.Participation)
	}
	if !updated.ProcessedFor("337089") {
		t.Fatal("the game should be marked processed for the team")
	}
	if _, found, _ := f.playerRepo.Get(context.Background(), "498765"); found {
		t.Fatal("opponents are not promoted to player documents")
	}
}

func TestPlayerSyncService_Run_SecondRunSkipsProcessedGames(t *testing.T) {
	t.Parallel()

	f := newPlayerSyncFixture(t)
	if _, err := f.svc.Run(context.Background(), PlayerSyncOptions{}); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	if _, err := f.svc.Run(context.Background(), PlayerSyncOptions{}); err != nil {
		t.Fatalf("second Run error: %v", err)
	}

	if f.provider.callCount("detail:6525425") != 1 {
		t.Fatal("a processed game page must not be fetched again")
	}

	alex, _, err := f.playerRepo.Get(context.Background(), "412345")
	if err != nil {
		t.Fatalf("Get player error: %v", err)
	}
	if alex.Stats.Matches != 1 || alex.Stats.Goals != 2 {
		t.Fatalf("re-running must not double count: %+v", alex.Stats)
	}
	if len(alex.Teams) != 1 {
		t.Fatalf("memberships are a set: %+v", alex.Teams)
	}
}

func TestPlayerSyncService_Run_DryRun(t *testing.T) {
	t.Parallel()

	f := newPlayerSyncFixture(t)
	result, err := f.svc.Run(context.Background(), PlayerSyncOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.DryRun || result.OKCount != 2 {
		t.Fatalf("expected dry run counts, got=%+v", result)
	}

	if _, found, _ := f.playerRepo.Get(context.Background(), "412345"); found {
		t.Fatal("dry run must not write players")
	}
	g, _, err := f.gameRepo.Get(context.Background(), "6525425")
	if err != nil {
		t.Fatalf("Get game error: %v", err)
	}
	if g.ProcessedFor("337089") {
		t.Fatal("dry run must not mark games processed")
	}
}

func TestMergeStats(t *testing.T) {
	t.Parallel()

	existing := player.Stats{Matches: 8, Goals: 4, Assists: 2, YellowCards: 1}
	computed := player.Stats{Matches: 9, Goals: 5}

	merged := mergeStats(existing, computed)
	if merged.Matches != 9 || merged.Goals != 5 {
		t.Fatalf("fresh non-zero values win: %+v", merged)
	}
	if merged.Assists != 2 || merged.YellowCards != 1 {
		t.Fatalf("zero fresh values keep history: %+v", merged)
	}
}

func TestGameIDFromURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://www.hockeyvictoria.org.au/game/6525425":  "6525425",
		"https://www.hockeyvictoria.org.au/game/6525425/": "6525425",
		"/game/6525425?tab=stats":                         "6525425",
		"6525425":                                         "6525425",
		"":                                                "",
	}
	for input, want := range cases {
		if got := gameIDFromURL(input); got != want {
			t.Fatalf("gameIDFromURL(%q)=%q, want %q", input, got, want)
		}
	}
}
