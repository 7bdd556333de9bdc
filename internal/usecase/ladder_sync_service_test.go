package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/memory"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

var ladderSyncNow = time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

func seedLadderTeams(t *testing.T, teamRepo *memory.TeamRepository) {
	t.Helper()
	err := teamRepo.UpsertBatch(context.Background(), []team.Team{
		{
			ID:            "337089",
			Name:          "Mentone Hockey Club - Premier League - Men",
			ClubID:        "mentone",
			CompetitionID: "21935",
			GradeID:       "30858",
			IsHomeClub:    true,
			Active:        true,
		},
		{
			ID:            "337095",
			Name:          "Mentone Hockey Club - Pennant A Women",
			ClubID:        "mentone",
			CompetitionID: "21936",
			GradeID:       "30860",
			IsHomeClub:    true,
			Active:        true,
		},
	})
	if err != nil {
		t.Fatalf("seed teams: %v", err)
	}
}

func TestLadderSyncService_Run(t *testing.T) {
	t.Parallel()

	teamRepo := memory.NewTeamRepository()
	ladderRepo := memory.NewLadderRepository()
	seedLadderTeams(t, teamRepo)

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Footscray Hockey Club", TeamID: "337090", Played: 10, Wins: 8, Losses: 2, Points: 24},
		{Position: 2, TeamName: "Mentone Hockey Club", TeamID: "337089", Played: 10, Wins: 6, Draws: 1, Losses: 3, GoalsFor: 20, GoalsAgainst: 12, GoalDifference: 8, Points: 19},
	}
	// The second grade's ladder rows carry no team ids, so the home club
	// row is found by name.
	provider.ladders["21936_30860"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", Played: 9, Wins: 9, GoalsFor: 31, GoalsAgainst: 4, GoalDifference: 27, Points: 27},
	}

	svc := NewLadderSyncService(provider, teamRepo, ladderRepo, LadderSyncConfig{}, logging.NewNop())
	svc.now = func() time.Time { return ladderSyncNow }

	result, err := svc.Run(context.Background(), LadderSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 2 || result.ErrorCount != 0 {
		t.Fatalf("expected both grades updated, got=%+v", result)
	}

	premier, _, err := teamRepo.Get(context.Background(), "337089")
	if err != nil {
		t.Fatalf("Get team error: %v", err)
	}
	if premier.LadderPosition != 2 || premier.LadderPoints != 19 {
		t.Fatalf("unexpected ladder block: %+v", premier)
	}
	if premier.LadderStats == nil || premier.LadderStats.GoalDifference != 8 {
		t.Fatalf("unexpected ladder stats: %+v", premier.LadderStats)
	}
	if !premier.LadderUpdatedAt.Equal(ladderSyncNow) {
		t.Fatalf("expected ladder stamp, got=%v", premier.LadderUpdatedAt)
	}
	if premier.Name != "Mentone Hockey Club - Premier League - Men" {
		t.Fatal("the ladder stage must not touch discovery-owned fields")
	}

	pennant, _, err := teamRepo.Get(context.Background(), "337095")
	if err != nil {
		t.Fatalf("Get team error: %v", err)
	}
	if pennant.LadderPosition != 1 || pennant.LadderPoints != 27 {
		t.Fatalf("name fallback should match the id-less row: %+v", pennant)
	}

	snap, found, err := ladderRepo.Get(context.Background(), "21935_30858")
	if err != nil || !found {
		t.Fatalf("snapshot missing: found=%v err=%v", found, err)
	}
	if snap.Position != 2 || snap.Points != 19 || !snap.FetchedAt.Equal(ladderSyncNow) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestLadderSyncService_Run_TeamMissingFromLadder(t *testing.T) {
	t.Parallel()

	teamRepo := memory.NewTeamRepository()
	seedLadderTeams(t, teamRepo)

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Footscray Hockey Club", TeamID: "337090", Points: 24},
	}
	provider.ladders["21936_30860"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337095", Points: 27},
	}

	svc := NewLadderSyncService(provider, teamRepo, memory.NewLadderRepository(), LadderSyncConfig{}, logging.NewNop())
	svc.now = func() time.Time { return ladderSyncNow }

	result, err := svc.Run(context.Background(), LadderSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 1 {
		t.Fatalf("only the matched team is updated, got=%+v", result)
	}

	premier, _, err := teamRepo.Get(context.Background(), "337089")
	if err != nil {
		t.Fatalf("Get team error: %v", err)
	}
	if premier.LadderPosition != 0 {
		t.Fatalf("unmatched team must stay untouched: %+v", premier)
	}
}

func TestLadderSyncService_Run_DryRun(t *testing.T) {
	t.Parallel()

	teamRepo := memory.NewTeamRepository()
	ladderRepo := memory.NewLadderRepository()
	seedLadderTeams(t, teamRepo)

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 2, TeamName: "Mentone Hockey Club", TeamID: "337089", Points: 19},
	}
	provider.ladders["21936_30860"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337095", Points: 27},
	}

	svc := NewLadderSyncService(provider, teamRepo, ladderRepo, LadderSyncConfig{}, logging.NewNop())
	svc.now = func() time.Time { return ladderSyncNow }

	result, err := svc.Run(context.Background(), LadderSyncOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.DryRun || result.OKCount != 2 {
		t.Fatalf("expected dry run counts, got=%+v", result)
	}

	premier, _, err := teamRepo.Get(context.Background(), "337089")
	if err != nil {
		t.Fatalf("Get team error: %v", err)
	}
	if premier.LadderPosition != 0 || premier.LadderStats != nil {
		t.Fatal("dry run must not write ladder fields")
	}
	if _, found, _ := ladderRepo.Get(context.Background(), "21935_30858"); found {
		t.Fatal("dry run must not store snapshots")
	}
}
