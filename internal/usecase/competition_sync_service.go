package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/competition"
	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

// melbourneLocation decides the default season year. Hockey Victoria runs on
// the local calendar, so a sync around new year must not pick the UTC year.
var melbourneLocation = func() *time.Location {
	loc, err := time.LoadLocation("Australia/Melbourne")
	if err != nil {
		return time.UTC
	}

	return loc
}()

type CompetitionSyncOptions struct {
	DryRun bool
}

// CompetitionSyncService refreshes the competitions and grades collections
// from the games directory page. It is the root of the pipeline: every later
// stage selects its work from what this one wrote.
type CompetitionSyncService struct {
	provider        HockeyVictoriaProvider
	competitionRepo competition.Repository
	gradeRepo       grade.Repository
	logger          *logging.Logger
	now             func() time.Time
}

func NewCompetitionSyncService(
	provider HockeyVictoriaProvider,
	competitionRepo competition.Repository,
	gradeRepo grade.Repository,
	logger *logging.Logger,
) *CompetitionSyncService {
	if logger == nil {
		logger = logging.Default()
	}

	return &CompetitionSyncService{
		provider:        provider,
		competitionRepo: competitionRepo,
		gradeRepo:       gradeRepo,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *CompetitionSyncService) Run(ctx context.Context, opts CompetitionSyncOptions) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CompetitionSyncService.Run")
	defer span.End()

	result := StageResult{Module: pipeline.ModuleCompetitions, DryRun: opts.DryRun}

	blocks, err := s.provider.FetchCompetitionsIndex(ctx)
	if err != nil {
		return result, fmt.Errorf("fetch competitions index: %w", err)
	}

	now := s.now().UTC()
	fallbackSeason := strconv.Itoa(s.now().In(melbourneLocation).Year())

	comps := make([]competition.Competition, 0, len(blocks))
	grades := make([]grade.Grade, 0, len(blocks)*4)
	seenComps := make(map[string]bool, len(blocks))
	seenGrades := make(map[string]bool, len(blocks)*4)

	for _, block := range blocks {
		season := block.SeasonHint
		if season == "" {
			season = fallbackSeason
		}

		if block.ParentCompID != "" && !seenComps[block.ParentCompID] {
			seenComps[block.ParentCompID] = true
			compType, _ := classify.Classify(block.Name)
			sourceURL := ""
			if len(block.Grades) > 0 {
				sourceURL = block.Grades[0].URL
			}
			comps = append(comps, competition.Competition{
				ID:          block.ParentCompID,
				Name:        block.Name,
				Season:      season,
				Type:        compType,
				Active:      true,
				SourceURL:   sourceURL,
				LastChecked: now,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}

		for _, link := range block.Grades {
			if link.FixtureID == "" || seenGrades[link.FixtureID] {
				continue
			}
			seenGrades[link.FixtureID] = true
			gradeType, gender := classify.Classify(link.Name)
			grades = append(grades, grade.Grade{
				ID:            link.FixtureID,
				CompetitionID: link.CompID,
				Name:          link.Name,
				Season:        season,
				Type:          gradeType,
				Gender:        gender,
				URL:           link.URL,
				Active:        true,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
		}
	}

	if len(comps) == 0 {
		return result, fmt.Errorf("%w: competitions index yielded no competitions", ErrParse)
	}
	if len(grades) == 0 {
		s.logger.WarnContext(ctx, "competitions index yielded no grade links", "competitions", len(comps))
	}

	sort.Slice(comps, func(i, j int) bool { return comps[i].ID < comps[j].ID })
	sort.Slice(grades, func(i, j int) bool { return grades[i].ID < grades[j].ID })

	result.OKCount = len(comps) + len(grades)
	result.Notes = append(result.Notes,
		fmt.Sprintf("%d competitions", len(comps)),
		fmt.Sprintf("%d grades", len(grades)),
	)

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry run: skipping competition writes",
			"competitions", len(comps),
			"grades", len(grades),
		)
		return result, nil
	}

	if err := s.competitionRepo.UpsertBatch(ctx, comps); err != nil {
		return result, fmt.Errorf("%w: upsert competitions: %v", ErrStore, err)
	}
	if err := s.gradeRepo.UpsertBatch(ctx, grades); err != nil {
		return result, fmt.Errorf("%w: upsert grades: %v", ErrStore, err)
	}

	s.logger.InfoContext(ctx, "competitions synced",
		"competitions", len(comps),
		"grades", len(grades),
	)
	return result, nil
}
