package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/ladder"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

type TeamSyncOptions struct {
	CompetitionID string
	GradeID       string
	Force         bool
	DryRun        bool
}

type TeamSyncConfig struct {
	// StaleAfter is how long a grade's team list stays trusted before a
	// scan re-checks its ladder page.
	StaleAfter time.Duration
	Workers    int
}

// TeamSyncService walks stale grades' ladder pages and rebuilds the teams
// and clubs collections from the rows it finds. The ladder is the only page
// that lists every team of a grade with its id, so discovery rides on it,
// and the position and points come along for free as the initial ladder
// block.
type TeamSyncService struct {
	provider   HockeyVictoriaProvider
	gradeRepo  grade.Repository
	teamRepo   team.Repository
	clubRepo   club.Repository
	ladderRepo ladder.Repository
	cfg        TeamSyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewTeamSyncService(
	provider HockeyVictoriaProvider,
	gradeRepo grade.Repository,
	teamRepo team.Repository,
	clubRepo club.Repository,
	ladderRepo ladder.Repository,
	cfg TeamSyncConfig,
	logger *logging.Logger,
) *TeamSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 7 * 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultStageWorkers
	}

	return &TeamSyncService{
		provider:   provider,
		gradeRepo:  gradeRepo,
		teamRepo:   teamRepo,
		clubRepo:   clubRepo,
		ladderRepo: ladderRepo,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *TeamSyncService) Run(ctx context.Context, opts TeamSyncOptions) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamSyncService.Run")
	defer span.End()

	result := StageResult{Module: pipeline.ModuleTeams, DryRun: opts.DryRun}

	grades, skippedFresh, err := s.targetGrades(ctx, opts)
	if err != nil {
		return result, err
	}
	if skippedFresh > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d grades checked recently, skipped", skippedFresh))
	}
	if len(grades) == 0 {
		result.Notes = append(result.Notes, "no grades due for a team scan")
		return result, nil
	}

	now := s.now().UTC()

	type gradeRow struct {
		gradeID  string
		teams    []team.Team
		ladder   []team.LadderUpdate
		snapshot *ladder.Snapshot
		err      error
	}
	rows := make(chan gradeRow, len(grades))
	var failed atomic.Int32

	err = runPooled(s.cfg.Workers, len(grades), func(i int) {
		g := grades[i]
		ladderRows, fetchErr := s.provider.FetchLadder(ctx, g.CompetitionID, g.ID)
		if fetchErr != nil {
			failed.Add(1)
			s.logger.WarnContext(ctx, "ladder fetch failed during team sync",
				"grade_id", g.ID,
				"competition_id", g.CompetitionID,
				"error", fetchErr,
			)
			rows <- gradeRow{gradeID: g.ID, err: fetchErr}
			return
		}

		row := gradeRow{gradeID: g.ID}
		for _, lr := range ladderRows {
			if lr.TeamID == "" {
				continue
			}
			isHome := club.IsHomeClubName(lr.TeamName)
			name := lr.TeamName
			if isHome {
				// Every Mentone side is listed under the same club name, so
				// the grade is folded in to keep display names unique.
				name = "Mentone Hockey Club - " + g.Name
			}
			row.teams = append(row.teams, team.Team{
				ID:            lr.TeamID,
				Name:          name,
				ClubName:      lr.TeamName,
				ClubID:        club.Slug(lr.TeamName),
				CompetitionID: g.CompetitionID,
				GradeID:       g.ID,
				Season:        g.Season,
				Type:          g.Type,
				Gender:        g.Gender,
				IsHomeClub:    isHome,
				Active:        true,
				CreatedAt:     now,
				UpdatedAt:     now,
			})
			row.ladder = append(row.ladder, team.LadderUpdate{
				TeamID:   lr.TeamID,
				Position: lr.Position,
				Points:   lr.Points,
				Stats:    ladderStatsFromRow(lr),
				At:       now,
			})
			if isHome && row.snapshot == nil {
				row.snapshot = &ladder.Snapshot{
					CompetitionID: g.CompetitionID,
					GradeID:       g.ID,
					Position:      lr.Position,
					Points:        lr.Points,
					FetchedAt:     now,
				}
			}
		}
		rows <- row
	})
	if err != nil {
		return result, err
	}
	close(rows)

	var firstFetchErr error
	checkedGrades := make([]string, 0, len(grades))
	teamIndex := make(map[string]team.Team)
	ladderIndex := make(map[string]team.LadderUpdate)
	var snapshots []ladder.Snapshot
	for row := range rows {
		if row.err != nil {
			if firstFetchErr == nil {
				firstFetchErr = row.err
			}
			continue
		}
		checkedGrades = append(checkedGrades, row.gradeID)
		for _, t := range row.teams {
			teamIndex[t.ID] = t
		}
		for _, u := range row.ladder {
			ladderIndex[u.TeamID] = u
		}
		if row.snapshot != nil {
			snapshots = append(snapshots, *row.snapshot)
		}
	}

	teams := make([]team.Team, 0, len(teamIndex))
	for _, t := range teamIndex {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	ladderUpdates := make([]team.LadderUpdate, 0, len(ladderIndex))
	for _, u := range ladderIndex {
		ladderUpdates = append(ladderUpdates, u)
	}
	sort.Slice(ladderUpdates, func(i, j int) bool { return ladderUpdates[i].TeamID < ladderUpdates[j].TeamID })
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Key() < snapshots[j].Key() })
	sort.Strings(checkedGrades)

	if len(teams) == 0 {
		if firstFetchErr != nil {
			return result, fmt.Errorf("fetch ladders: %w", firstFetchErr)
		}
		return result, fmt.Errorf("%w: ladder pages yielded no teams", ErrParse)
	}

	clubIndex := make(map[string]club.Club)
	for _, t := range teams {
		if _, ok := clubIndex[t.ClubID]; ok {
			continue
		}
		clubIndex[t.ClubID] = club.Club{
			ID:         t.ClubID,
			Name:       t.ClubName,
			ShortName:  club.ShortNameFor(t.ClubName),
			IsHomeClub: t.IsHomeClub,
			Active:     true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
	}
	clubs := make([]club.Club, 0, len(clubIndex))
	for _, c := range clubIndex {
		clubs = append(clubs, c)
	}
	sort.Slice(clubs, func(i, j int) bool { return clubs[i].ID < clubs[j].ID })

	result.OKCount = len(teams) + len(clubs)
	result.ErrorCount = int(failed.Load())
	result.Notes = append(result.Notes,
		fmt.Sprintf("%d teams across %d grades", len(teams), len(grades)),
		fmt.Sprintf("%d clubs", len(clubs)),
	)
	if result.ErrorCount > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d grades failed to fetch", result.ErrorCount))
	}

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry run: skipping team writes",
			"teams", len(teams),
			"clubs", len(clubs),
		)
		return result, nil
	}

	if err := s.clubRepo.UpsertBatch(ctx, clubs); err != nil {
		return result, fmt.Errorf("%w: upsert clubs: %v", ErrStore, err)
	}
	if err := s.teamRepo.UpsertBatch(ctx, teams); err != nil {
		return result, fmt.Errorf("%w: upsert teams: %v", ErrStore, err)
	}
	if len(ladderUpdates) > 0 {
		if err := s.teamRepo.UpdateLadder(ctx, ladderUpdates); err != nil {
			return result, fmt.Errorf("%w: seed team ladders: %v", ErrStore, err)
		}
	}
	for _, snap := range snapshots {
		if err := s.ladderRepo.Put(ctx, snap); err != nil {
			return result, fmt.Errorf("%w: store ladder snapshot %s: %v", ErrStore, snap.Key(), err)
		}
	}
	if len(checkedGrades) > 0 {
		if err := s.gradeRepo.TouchChecked(ctx, checkedGrades, now); err != nil {
			return result, fmt.Errorf("%w: mark grades checked: %v", ErrStore, err)
		}
	}

	s.logger.InfoContext(ctx, "teams synced",
		"teams", len(teams),
		"clubs", len(clubs),
		"grades_checked", len(checkedGrades),
		"failed_grades", result.ErrorCount,
	)
	return result, nil
}

// targetGrades picks the grades to scan: everything matching the selectors,
// minus the ones checked recently. An explicit grade id or force bypasses
// the staleness window.
func (s *TeamSyncService) targetGrades(ctx context.Context, opts TeamSyncOptions) ([]grade.Grade, int, error) {
	grades, err := s.gradeRepo.List(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list grades: %v", ErrStore, err)
	}
	grades = filterGrades(grades, opts.CompetitionID, opts.GradeID)
	if len(grades) == 0 {
		return nil, 0, fmt.Errorf("no grades in store; run the competitions stage first")
	}
	if opts.Force || opts.GradeID != "" {
		return grades, 0, nil
	}

	stale, err := s.gradeRepo.ListStale(ctx, s.now().UTC().Add(-s.cfg.StaleAfter))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list stale grades: %v", ErrStore, err)
	}
	staleSet := make(map[string]bool, len(stale))
	for _, g := range stale {
		staleSet[g.ID] = true
	}

	due := grades[:0]
	for _, g := range grades {
		if staleSet[g.ID] {
			due = append(due, g)
		}
	}

	return due, len(grades) - len(due), nil
}

func filterGrades(grades []grade.Grade, competitionID, gradeID string) []grade.Grade {
	if competitionID == "" && gradeID == "" {
		return grades
	}

	out := grades[:0]
	for _, g := range grades {
		if competitionID != "" && g.CompetitionID != competitionID {
			continue
		}
		if gradeID != "" && g.ID != gradeID {
			continue
		}
		out = append(out, g)
	}

	return out
}
