package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/infrastructure/repository/memory"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

func testIndexBlocks() []ExternalCompetitionBlock {
	return []ExternalCompetitionBlock{
		{
			Name:         "2025 Senior Competition",
			ParentCompID: "21935",
			SeasonHint:   "2025",
			Grades: []ExternalGradeLink{
				{Name: "Premier League - Men", CompID: "21935", FixtureID: "30858", URL: "https://www.hockeyvictoria.org.au/games/21935/30858"},
				{Name: "Premier League - Women", CompID: "21935", FixtureID: "30859", URL: "https://www.hockeyvictoria.org.au/games/21935/30859"},
			},
		},
		{
			Name:         "Junior Competition",
			ParentCompID: "21940",
			Grades: []ExternalGradeLink{
				{Name: "U14 Mixed A", CompID: "21940", FixtureID: "31001", URL: "https://www.hockeyvictoria.org.au/games/21940/31001"},
			},
		},
	}
}

func TestCompetitionSyncService_Run(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.indexBlocks = testIndexBlocks()

	compRepo := memory.NewCompetitionRepository()
	gradeRepo := memory.NewGradeRepository()
	svc := NewCompetitionSyncService(provider, compRepo, gradeRepo, logging.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC) }

	result, err := svc.Run(context.Background(), CompetitionSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 5 {
		t.Fatalf("expected 5 documents, got=%d", result.OKCount)
	}
	if result.ErrorCount != 0 {
		t.Fatalf("expected no errors, got=%d", result.ErrorCount)
	}

	comps, err := compRepo.List(context.Background())
	if err != nil {
		t.Fatalf("List competitions error: %v", err)
	}
	if len(comps) != 2 {
		t.Fatalf("expected 2 competitions, got=%d", len(comps))
	}
	if comps[0].ID != "21935" || comps[0].Type != classify.TypeSenior || comps[0].Season != "2025" {
		t.Fatalf("unexpected senior competition: %+v", comps[0])
	}

	g, found, err := gradeRepo.Get(context.Background(), "30858")
	if err != nil || !found {
		t.Fatalf("premier league men grade missing: found=%v err=%v", found, err)
	}
	if g.CompetitionID != "21935" || g.Season != "2025" {
		t.Fatalf("unexpected grade wiring: %+v", g)
	}
	if g.Type != classify.TypeSenior || g.Gender != classify.GenderMen {
		t.Fatalf("unexpected grade classification: type=%s gender=%s", g.Type, g.Gender)
	}

	junior, found, err := gradeRepo.Get(context.Background(), "31001")
	if err != nil || !found {
		t.Fatalf("junior grade missing: found=%v err=%v", found, err)
	}
	if junior.Season != "2025" {
		t.Fatalf("expected season fallback to the current Melbourne year, got=%q", junior.Season)
	}
	if junior.Type != classify.TypeJunior || junior.Gender != classify.GenderMixed {
		t.Fatalf("unexpected junior classification: type=%s gender=%s", junior.Type, junior.Gender)
	}
}

func TestCompetitionSyncService_Run_DuplicateBlocksCollapse(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	blocks := testIndexBlocks()
	blocks = append(blocks, blocks[0])
	provider.indexBlocks = blocks

	compRepo := memory.NewCompetitionRepository()
	gradeRepo := memory.NewGradeRepository()
	svc := NewCompetitionSyncService(provider, compRepo, gradeRepo, logging.NewNop())

	result, err := svc.Run(context.Background(), CompetitionSyncOptions{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if result.OKCount != 5 {
		t.Fatalf("expected duplicates collapsed to 5 documents, got=%d", result.OKCount)
	}
}

func TestCompetitionSyncService_Run_EmptyIndexFails(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	svc := NewCompetitionSyncService(provider, memory.NewCompetitionRepository(), memory.NewGradeRepository(), logging.NewNop())

	_, err := svc.Run(context.Background(), CompetitionSyncOptions{})
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for an empty index, got=%v", err)
	}
}

func TestCompetitionSyncService_Run_DryRunWritesNothing(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.indexBlocks = testIndexBlocks()

	compRepo := memory.NewCompetitionRepository()
	gradeRepo := memory.NewGradeRepository()
	svc := NewCompetitionSyncService(provider, compRepo, gradeRepo, logging.NewNop())

	result, err := svc.Run(context.Background(), CompetitionSyncOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !result.DryRun || result.OKCount != 5 {
		t.Fatalf("expected dry run with would-write counts, got=%+v", result)
	}

	comps, err := compRepo.List(context.Background())
	if err != nil {
		t.Fatalf("List competitions error: %v", err)
	}
	grades, err := gradeRepo.List(context.Background())
	if err != nil {
		t.Fatalf("List grades error: %v", err)
	}
	if len(comps) != 0 || len(grades) != 0 {
		t.Fatalf("dry run must not write: comps=%d grades=%d", len(comps), len(grades))
	}
}
