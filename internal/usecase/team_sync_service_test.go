package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/ladder"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/memory"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

func seedTestGrades(t *testing.T, gradeRepo *memory.GradeRepository) {
	t.Helper()
	err := gradeRepo.UpsertBatch(context.Background(), []grade.Grade{
		{ID: "30858", CompetitionID: "21935", Name: "Premier League - Men", Season: "2025", Type: classify.TypeSenior, Gender: classify.GenderMen, Active: true},
		{ID: "30859", CompetitionID: "21935", Name: "Premier League - Women", Season: "2025", Type: classify.TypeSenior, Gender: classify.GenderWomen, Active: true},
	})
	if err != nil {
		t.Fatalf("seed grades: %v", err)
	}
}

func newTestTeamSync(provider *fakeProvider, gradeRepo *memory.GradeRepository) (*TeamSyncService, *memory.TeamRepository, *memory.ClubRepository, *memory.LadderRepository) {
	teamRepo := memory.NewTeamRepository()
	clubRepo := memory.NewClubRepository()
	ladderRepo := memory.NewLadderRepository()
	svc := NewTeamSyncService(provider, gradeRepo, teamRepo, clubRepo, ladderRepo, TeamSyncConfig{}, logging.NewNop())
	return svc, teamRepo, clubRepo, ladderRepo
}

func TestTeamSyncService_Run(t *testing.T) {
	t.Parallel()

	gradeRepo := memory.NewGradeRepository()
	seedTestGrades(t, gradeRepo)

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337089", Played: 10, Wins: 9, Draws: 1, Points: 30},
		{Position: 2, TeamName: "Footscray Hockey Club", TeamID: "337090", Points: 24},
	}
	provider.ladders["21935_30859"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Camberwell HC", TeamID: "337091", Points: 27},
	}

	svc, teamRepo, clubRepo, ladderRepo := newTestTeamSync(provider, gradeRepo)
	result, err := svc.Run(context.Background(), TeamSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.ErrorCount != 0 {
		t.Fatalf("expected no grade failures, got=%d", result.ErrorCount)
	}

	mentone, found, err := teamRepo.Get(context.Background(), "337089")
	if err != nil || !found {
		t.Fatalf("mentone team missing: found=%v err=%v", found, err)
	}
	if mentone.Name != "Mentone Hockey Club - Premier League - Men" {
		t.Fatalf("mentone team name should fold the grade in, got=%q", mentone.Name)
	}
	if !mentone.IsHomeClub || mentone.ClubID != "mentone" || mentone.GradeID != "30858" {
		t.Fatalf("unexpected mentone team: %+v", mentone)
	}
	if mentone.Gender != classify.GenderMen || mentone.Season != "2025" {
		t.Fatalf("team should inherit grade classification: %+v", mentone)
	}
	if mentone.LadderPosition != 1 || mentone.LadderPoints != 30 {
		t.Fatalf("discovery should seed the ladder block: %+v", mentone)
	}
	if mentone.LadderStats == nil || mentone.LadderStats.Wins != 9 {
		t.Fatalf("discovery should seed ladder stats: %+v", mentone.LadderStats)
	}

	footscray, _, err := teamRepo.Get(context.Background(), "337090")
	if err != nil {
		t.Fatalf("Get footscray error: %v", err)
	}
	if footscray.Name != "Footscray Hockey Club" || footscray.IsHomeClub {
		t.Fatalf("unexpected away team: %+v", footscray)
	}

	homeTeams, err := teamRepo.List(context.Background(), team.Query{HomeClubOnly: true})
	if err != nil {
		t.Fatalf("List home teams error: %v", err)
	}
	if len(homeTeams) != 1 {
		t.Fatalf("expected 1 home club team, got=%d", len(homeTeams))
	}

	clubs, err := clubRepo.List(context.Background())
	if err != nil {
		t.Fatalf("List clubs error: %v", err)
	}
	if len(clubs) != 3 {
		t.Fatalf("expected 3 clubs, got=%d", len(clubs))
	}
	camberwell, found, err := clubRepo.Get(context.Background(), "camberwell_hc")
	if err != nil || !found {
		t.Fatalf("camberwell club missing: found=%v err=%v", found, err)
	}
	if camberwell.ShortName != "Camberwell" {
		t.Fatalf("expected organisation suffix stripped, got=%q", camberwell.ShortName)
	}

	snap, found, err := ladderRepo.Get(context.Background(), ladder.Key("21935", "30858"))
	if err != nil || !found {
		t.Fatalf("initial ladder snapshot missing: found=%v err=%v", found, err)
	}
	if snap.Position != 1 || snap.Points != 30 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if _, found, _ := ladderRepo.Get(context.Background(), ladder.Key("21935", "30859")); found {
		t.Fatal("no snapshot expected for a grade without a home club team")
	}

	g, _, err := gradeRepo.Get(context.Background(), "30858")
	if err != nil {
		t.Fatalf("Get grade error: %v", err)
	}
	if g.LastChecked.IsZero() {
		t.Fatal("a scanned grade should be stamped checked")
	}
}

func TestTeamSyncService_Run_SkipsFreshGrades(t *testing.T) {
	t.Parallel()

	gradeRepo := memory.NewGradeRepository()
	seedTestGrades(t, gradeRepo)

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337089", Points: 30},
	}
	provider.ladders["21935_30859"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337095", Points: 27},
	}

	svc, _, _, _ := newTestTeamSync(provider, gradeRepo)
	if _, err := svc.Run(context.Background(), TeamSyncOptions{}); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	fetchesAfterFirst := provider.totalCalls()
	if fetchesAfterFirst != 2 {
		t.Fatalf("expected 2 ladder fetches on the first scan, got=%d", fetchesAfterFirst)
	}

	// Freshly stamped grades are skipped wholesale.
	result, err := svc.Run(context.Background(), TeamSyncOptions{})
	if err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if provider.totalCalls() != fetchesAfterFirst {
		t.Fatalf("fresh grades should not be re-fetched, calls=%d", provider.totalCalls())
	}
	if result.OKCount != 0 {
		t.Fatalf("expected an empty work set, got ok=%d", result.OKCount)
	}

	// Force bypasses the window.
	if _, err := svc.Run(context.Background(), TeamSyncOptions{Force: true}); err != nil {
		t.Fatalf("forced Run error: %v", err)
	}
	if provider.totalCalls() != fetchesAfterFirst*2 {
		t.Fatalf("force should re-fetch every grade, calls=%d", provider.totalCalls())
	}
}

func TestTeamSyncService_Run_ExplicitGradeBypassesWindow(t *testing.T) {
	t.Parallel()

	gradeRepo := memory.NewGradeRepository()
	seedTestGrades(t, gradeRepo)
	if err := gradeRepo.TouchChecked(context.Background(), []string{"30858", "30859"}, time.Now().UTC()); err != nil {
		t.Fatalf("stamp grades: %v", err)
	}

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337089", Points: 30},
	}

	svc, teamRepo, _, _ := newTestTeamSync(provider, gradeRepo)
	result, err := svc.Run(context.Background(), TeamSyncOptions{GradeID: "30858"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount == 0 {
		t.Fatal("an explicit grade id should scan even a fresh grade")
	}
	if _, found, _ := teamRepo.Get(context.Background(), "337089"); !found {
		t.Fatal("team from the requested grade should be written")
	}
}

func TestTeamSyncService_Run_PartialGradeFailure(t *testing.T) {
	t.Parallel()

	gradeRepo := memory.NewGradeRepository()
	seedTestGrades(t, gradeRepo)

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337089"},
	}
	// 30859 has no ladder entry, so the fake answers ErrNotFound.

	svc, teamRepo, _, _ := newTestTeamSync(provider, gradeRepo)
	result, err := svc.Run(context.Background(), TeamSyncOptions{})
	if err != nil {
		t.Fatalf("Run should tolerate a partial failure, got=%v", err)
	}
	if result.ErrorCount != 1 {
		t.Fatalf("expected 1 failed grade, got=%d", result.ErrorCount)
	}
	if _, found, _ := teamRepo.Get(context.Background(), "337089"); !found {
		t.Fatal("teams from the healthy grade should still be written")
	}

	// The failed grade stays stale so the next run retries it.
	healthy, _, _ := gradeRepo.Get(context.Background(), "30858")
	failed, _, _ := gradeRepo.Get(context.Background(), "30859")
	if healthy.LastChecked.IsZero() {
		t.Fatal("scanned grade should be stamped")
	}
	if !failed.LastChecked.IsZero() {
		t.Fatal("failed grade must not be stamped")
	}
}

func TestTeamSyncService_Run_NoGradesFails(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newTestTeamSync(newFakeProvider(), memory.NewGradeRepository())
	if _, err := svc.Run(context.Background(), TeamSyncOptions{}); err == nil {
		t.Fatal("expected an error when the grade collection is empty")
	}
}

func TestTeamSyncService_Run_AllLaddersFailing(t *testing.T) {
	t.Parallel()

	gradeRepo := memory.NewGradeRepository()
	seedTestGrades(t, gradeRepo)

	svc, _, _, _ := newTestTeamSync(newFakeProvider(), gradeRepo)
	_, err := svc.Run(context.Background(), TeamSyncOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected the first fetch error to surface, got=%v", err)
	}
}

func TestTeamSyncService_Run_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	gradeRepo := memory.NewGradeRepository()
	seedTestGrades(t, gradeRepo)

	provider := newFakeProvider()
	provider.ladders["21935_30858"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Mentone Hockey Club", TeamID: "337089", Points: 30},
	}
	provider.ladders["21935_30859"] = []ExternalLadderRow{
		{Position: 1, TeamName: "Camberwell HC", TeamID: "337091", Points: 27},
	}

	svc, teamRepo, _, _ := newTestTeamSync(provider, gradeRepo)
	result, err := svc.Run(context.Background(), TeamSyncOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount == 0 {
		t.Fatal("dry run should still count would-be writes")
	}
	if _, found, _ := teamRepo.Get(context.Background(), "337089"); found {
		t.Fatal("dry run must not write teams")
	}
	g, _, _ := gradeRepo.Get(context.Background(), "30858")
	if !g.LastChecked.IsZero() {
		t.Fatal("dry run must not stamp grades")
	}
}
