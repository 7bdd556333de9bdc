package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/memory"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

var resultSyncNow = time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)

func seedResultGames(t *testing.T, gameRepo *memory.GameRepository) {
	t.Helper()
	err := gameRepo.UpsertBatch(context.Background(), []game.Game{
		{
			ID:             "6525425",
			CompetitionID:  "21935",
			GradeID:        "30858",
			Date:           resultSyncNow.AddDate(0, 0, -1),
			HomeTeam:       game.Side{ID: "337089", Name: "Mentone Hockey Club"},
			AwayTeam:       game.Side{ID: "337090", Name: "Footscray Hockey Club"},
			Status:         game.StatusScheduled,
			MentonePlaying: true,
			URL:            "https://www.hockeyvictoria.org.au/game/6525425",
		},
		{
			ID:             "6525428",
			CompetitionID:  "21935",
			GradeID:        "30858",
			Date:           resultSyncNow.AddDate(0, 0, -2),
			HomeTeam:       game.Side{ID: "337089", Name: "Mentone Hockey Club"},
			AwayTeam:       game.Side{ID: "337091", Name: "Camberwell HC"},
			Status:         game.StatusCompleted,
			MentonePlaying: true,
		},
		{
			ID:             "6525429",
			CompetitionID:  "21935",
			GradeID:        "30858",
			Date:           resultSyncNow.AddDate(0, 0, -10),
			HomeTeam:       game.Side{ID: "337091", Name: "Camberwell HC"},
			AwayTeam:       game.Side{ID: "337089", Name: "Mentone Hockey Club"},
			Status:         game.StatusScheduled,
			MentonePlaying: true,
		},
	})
	if err != nil {
		t.Fatalf("seed games: %v", err)
	}
}

func TestResultSyncService_Run(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository()
	seedResultGames(t, gameRepo)

	provider := newFakeProvider()
	provider.details["6525425"] = ExternalGameDetail{HomeScore: intPtr(2), AwayScore: intPtr(2)}

	svc := NewResultSyncService(provider, gameRepo, ResultSyncConfig{}, logging.NewNop())
	svc.now = func() time.Time { return resultSyncNow }

	result, err := svc.Run(context.Background(), ResultSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 1 || result.ErrorCount != 0 {
		t.Fatalf("expected exactly the due game, got=%+v", result)
	}

	// The terminal game and the one outside the window stay untouched.
	if provider.callCount("detail:6525428") != 0 {
		t.Fatal("terminal games are not re-checked without force")
	}
	if provider.callCount("detail:6525429") != 0 {
		t.Fatal("games outside the window are not re-checked")
	}

	updated, _, err := gameRepo.Get(context.Background(), "6525425")
	if err != nil {
		t.Fatalf("Get updated game error: %v", err)
	}
	if updated.Status != game.StatusCompleted {
		t.Fatalf("expected completed, got=%q", updated.Status)
	}
	if updated.HomeTeam.Score == nil || *updated.HomeTeam.Score != 2 {
		t.Fatalf("expected home score applied, got=%+v", updated.HomeTeam)
	}
	if updated.MentoneResult != game.ResultDraw {
		t.Fatalf("expected a draw for the home club, got=%q", updated.MentoneResult)
	}
	if !updated.ResultsRetrievedAt.Equal(resultSyncNow) {
		t.Fatalf("expected retrieval stamp, got=%v", updated.ResultsRetrievedAt)
	}
}

func TestResultSyncService_Run_ForfeitKeepsScoresUnset(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository()
	err := gameRepo.UpsertBatch(context.Background(), []game.Game{{
		ID:             "6525430",
		Date:           resultSyncNow.AddDate(0, 0, -1),
		HomeTeam:       game.Side{ID: "337090", Name: "Footscray Hockey Club"},
		AwayTeam:       game.Side{ID: "337089", Name: "Mentone Hockey Club"},
		Status:         game.StatusScheduled,
		MentonePlaying: true,
	}})
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}

	provider := newFakeProvider()
	provider.details["6525430"] = ExternalGameDetail{StatusKeyword: "Forfeit - home team", WinnerText: "Mentone Hockey Club"}

	svc := NewResultSyncService(provider, gameRepo, ResultSyncConfig{}, logging.NewNop())
	svc.now = func() time.Time { return resultSyncNow }

	if _, err := svc.Run(context.Background(), ResultSyncOptions{}); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	updated, _, err := gameRepo.Get(context.Background(), "6525430")
	if err != nil {
		t.Fatalf("Get updated game error: %v", err)
	}
	if updated.Status != game.StatusForfeit {
		t.Fatalf("expected forfeit, got=%q", updated.Status)
	}
	if updated.HomeTeam.Score != nil || updated.AwayTeam.Score != nil {
		t.Fatal("a forfeit without a scoreline must not invent scores")
	}
	if updated.MentoneResult != "" {
		t.Fatalf("mentone_result is only set for completed games, got=%q", updated.MentoneResult)
	}
	if updated.WinnerText != "Mentone Hockey Club" {
		t.Fatalf("winner text should carry through, got=%q", updated.WinnerText)
	}
}

func TestResultSyncService_Run_NeutralGamesNeverSelected(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository()
	err := gameRepo.UpsertBatch(context.Background(), []game.Game{{
		ID:       "6525431",
		Date:     resultSyncNow.AddDate(0, 0, -1),
		HomeTeam: game.Side{ID: "337091", Name: "Camberwell HC"},
		AwayTeam: game.Side{ID: "337092", Name: "Doncaster Hockey Club"},
		Status:   game.StatusScheduled,
	}})
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}

	provider := newFakeProvider()
	provider.details["6525431"] = ExternalGameDetail{HomeScore: intPtr(4), AwayScore: intPtr(1)}

	svc := NewResultSyncService(provider, gameRepo, ResultSyncConfig{}, logging.NewNop())
	svc.now = func() time.Time { return resultSyncNow }

	result, err := svc.Run(context.Background(), ResultSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 0 {
		t.Fatalf("games without the home club are out of scope, got=%+v", result)
	}
	if provider.callCount("detail:6525431") != 0 {
		t.Fatal("a neutral game's page must not be fetched")
	}
}

func TestResultSyncService_Run_SingleGameIgnoresFilters(t *testing.T) {
	t.Parallel()

	gameRepo := memory.NewGameRepository()
	seedResultGames(t, gameRepo)

	provider := newFakeProvider()
	provider.details["6525428"] = ExternalGameDetail{HomeScore: intPtr(5), AwayScore: intPtr(0)}

	svc := NewResultSyncService(provider, gameRepo, ResultSyncConfig{}, logging.NewNop())
	svc.now = func() time.Time { return resultSyncNow }

	result, err := svc.Run(context.Background(), ResultSyncOptions{GameID: "6525428"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 1 {
		t.Fatalf("expected the named game re-checked, got=%+v", result)
	}

	updated, _, err := gameRepo.Get(context.Background(), "6525428")
	if err != nil {
		t.Fatalf("Get updated game error: %v", err)
	}
	if updated.MentoneResult != game.ResultWin {
		t.Fatalf("expected a win, got=%q", updated.MentoneResult)
	}
}

func TestBuildResultUpdate(t *testing.T) {
	t.Parallel()

	base := game.Game{
		ID:             "1",
		Date:           resultSyncNow.AddDate(0, 0, -1),
		HomeTeam:       game.Side{Name: "Mentone Hockey Club"},
		AwayTeam:       game.Side{Name: "Footscray Hockey Club"},
		MentonePlaying: true,
	}

	update, _ := buildResultUpdate(base, ExternalGameDetail{HomeScore: intPtr(1), AwayScore: intPtr(3)}, resultSyncNow)
	if update == nil || update.Status != game.StatusCompleted || update.MentoneResult != game.ResultLoss {
		t.Fatalf("unexpected completed update: %+v", update)
	}

	update, _ = buildResultUpdate(base, ExternalGameDetail{StatusKeyword: "Cancelled"}, resultSyncNow)
	if update == nil || update.Status != game.StatusCancelled || update.MentoneResult != "" {
		t.Fatalf("unexpected cancelled update: %+v", update)
	}

	update, _ = buildResultUpdate(base, ExternalGameDetail{}, resultSyncNow)
	if update == nil || update.Status != game.StatusUnknownOutcome {
		t.Fatalf("a played game with nothing on the page is an unknown outcome: %+v", update)
	}

	future := base
	future.Date = resultSyncNow.AddDate(0, 0, 2)
	update, reason := buildResultUpdate(future, ExternalGameDetail{}, resultSyncNow)
	if update != nil || reason == "" {
		t.Fatalf("a future game without news should be skipped, got=%+v reason=%q", update, reason)
	}

	neutral := base
	neutral.MentonePlaying = false
	update, _ = buildResultUpdate(neutral, ExternalGameDetail{HomeScore: intPtr(2), AwayScore: intPtr(0)}, resultSyncNow)
	if update == nil || update.MentoneResult != "" {
		t.Fatalf("no mentone result for neutral games: %+v", update)
	}
}
