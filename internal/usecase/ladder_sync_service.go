package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/domain/ladder"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

type LadderSyncOptions struct {
	CompetitionID string
	GradeID       string
	DryRun        bool
}

type LadderSyncConfig struct {
	Workers int
}

// LadderSyncService refreshes the ladder block on every home-club team and
// caches one snapshot per grade. It writes only the ladder-owned fields, so
// the teams stage and this one never fight over a document.
type LadderSyncService struct {
	provider   HockeyVictoriaProvider
	teamRepo   team.Repository
	ladderRepo ladder.Repository
	cfg        LadderSyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewLadderSyncService(
	provider HockeyVictoriaProvider,
	teamRepo team.Repository,
	ladderRepo ladder.Repository,
	cfg LadderSyncConfig,
	logger *logging.Logger,
) *LadderSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultStageWorkers
	}

	return &LadderSyncService{
		provider:   provider,
		teamRepo:   teamRepo,
		ladderRepo: ladderRepo,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *LadderSyncService) Run(ctx context.Context, opts LadderSyncOptions) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LadderSyncService.Run")
	defer span.End()

	result := StageResult{Module: pipeline.ModuleLadder, DryRun: opts.DryRun}

	teams, err := s.teamRepo.List(ctx, team.Query{
		CompetitionID: opts.CompetitionID,
		GradeID:       opts.GradeID,
		HomeClubOnly:  true,
	})
	if err != nil {
		return result, fmt.Errorf("%w: list home club teams: %v", ErrStore, err)
	}
	if len(teams) == 0 {
		result.Notes = append(result.Notes, "no home club teams in store")
		return result, nil
	}

	groups := groupTeamsByGrade(teams)
	now := s.now().UTC()

	type gradeRow struct {
		updates  []team.LadderUpdate
		snapshot *ladder.Snapshot
		missing  int
		err      error
	}
	rows := make(chan gradeRow, len(groups))
	var failed atomic.Int32

	err = runPooled(s.cfg.Workers, len(groups), func(i int) {
		grp := groups[i]
		ladderRows, fetchErr := s.provider.FetchLadder(ctx, grp.competitionID, grp.gradeID)
		if fetchErr != nil {
			failed.Add(1)
			s.logger.WarnContext(ctx, "ladder fetch failed",
				"competition_id", grp.competitionID,
				"grade_id", grp.gradeID,
				"error", fetchErr,
			)
			rows <- gradeRow{err: fetchErr}
			return
		}

		row := gradeRow{}
		for _, t := range grp.teams {
			lr, ok := findLadderRow(ladderRows, t.ID)
			if !ok {
				row.missing++
				s.logger.WarnContext(ctx, "home club team missing from ladder",
					"team_id", t.ID,
					"grade_id", grp.gradeID,
				)
				continue
			}
			stats := ladderStatsFromRow(lr)
			if !stats.Consistent() {
				s.logger.WarnContext(ctx, "ladder row totals do not add up",
					"team_id", t.ID,
					"played", stats.Played,
					"wins", stats.Wins,
					"draws", stats.Draws,
					"losses", stats.Losses,
					"byes", stats.Byes,
				)
			}
			row.updates = append(row.updates, team.LadderUpdate{
				TeamID:   t.ID,
				Position: lr.Position,
				Points:   lr.Points,
				Stats:    stats,
				At:       now,
			})
			if row.snapshot == nil {
				row.snapshot = &ladder.Snapshot{
					CompetitionID: grp.competitionID,
					GradeID:       grp.gradeID,
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
	missing := 0
	var updates []team.LadderUpdate
	var snapshots []ladder.Snapshot
	for row := range rows {
		if row.err != nil {
			if firstFetchErr == nil {
				firstFetchErr = row.err
			}
			continue
		}
		missing += row.missing
		updates = append(updates, row.updates...)
		if row.snapshot != nil {
			snapshots = append(snapshots, *row.snapshot)
		}
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].TeamID < updates[j].TeamID })
	sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Key() < snapshots[j].Key() })

	result.OKCount = len(updates)
	result.ErrorCount = int(failed.Load())
	result.Notes = append(result.Notes, fmt.Sprintf("%d ladder rows across %d grades", len(updates), len(groups)))
	if missing > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d teams missing from their ladder", missing))
	}
	if result.ErrorCount > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d grades failed to fetch", result.ErrorCount))
	}

	if len(updates) == 0 && firstFetchErr != nil {
		return result, fmt.Errorf("fetch ladders: %w", firstFetchErr)
	}

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry run: skipping ladder writes", "ladder_rows", len(updates))
		return result, nil
	}

	if len(updates) > 0 {
		if err := s.teamRepo.UpdateLadder(ctx, updates); err != nil {
			return result, fmt.Errorf("%w: update team ladders: %v", ErrStore, err)
		}
	}
	for _, snap := range snapshots {
		if err := s.ladderRepo.Put(ctx, snap); err != nil {
			return result, fmt.Errorf("%w: store ladder snapshot %s: %v", ErrStore, snap.Key(), err)
		}
	}

	s.logger.InfoContext(ctx, "ladders synced",
		"ladder_rows", len(updates),
		"snapshots", len(snapshots),
		"failed_grades", result.ErrorCount,
	)
	return result, nil
}

type gradeGroup struct {
	competitionID string
	gradeID       string
	teams         []team.Team
}

func groupTeamsByGrade(teams []team.Team) []gradeGroup {
	index := make(map[string]int)
	var groups []gradeGroup
	for _, t := range teams {
		key := ladder.Key(t.CompetitionID, t.GradeID)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, gradeGroup{competitionID: t.CompetitionID, gradeID: t.GradeID})
		}
		groups[i].teams = append(groups[i].teams, t)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].competitionID != groups[j].competitionID {
			return groups[i].competitionID < groups[j].competitionID
		}
		return groups[i].gradeID < groups[j].gradeID
	})

	return groups
}

func ladderStatsFromRow(row ExternalLadderRow) team.LadderStats {
	return team.LadderStats{
		Played:         row.Played,
		Wins:           row.Wins,
		Draws:          row.Draws,
		Losses:         row.Losses,
		Byes:           row.Byes,
		GoalsFor:       row.GoalsFor,
		GoalsAgainst:   row.GoalsAgainst,
		GoalDifference: row.GoalDifference,
		Points:         row.Points,
	}
}

// findLadderRow matches by team id when the ladder carries one, falling back
// to the home-club name match for rows whose link gave no id.
func findLadderRow(rows []ExternalLadderRow, teamID string) (ExternalLadderRow, bool) {
	for _, row := range rows {
		if row.TeamID != "" && row.TeamID == teamID {
			return row, true
		}
	}
	for _, row := range rows {
		if club.IsHomeClubName(row.TeamName) {
			return row, true
		}
	}

	return ExternalLadderRow{}, false
}
