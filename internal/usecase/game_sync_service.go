package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

type GameSyncOptions struct {
	CompetitionID string
	GradeID       string
	MentoneOnly   bool
	DryRun        bool
}

type GameSyncConfig struct {
	// MaxRounds caps the fixture walk; no Hockey Victoria season runs
	// longer than 23 rounds.
	MaxRounds int
	// EmptyRoundLimit stops the walk after this many consecutive rounds
	// without a single game card.
	EmptyRoundLimit int
	Workers         int
}

// GameSyncService discovers fixtures by walking round pages grade by grade.
// Only grades that field a home-club team are walked; the rest of the
// association is out of scope for the dashboard.
type GameSyncService struct {
	provider  HockeyVictoriaProvider
	gradeRepo grade.Repository
	teamRepo  team.Repository
	gameRepo  game.Repository
	cfg       GameSyncConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewGameSyncService(
	provider HockeyVictoriaProvider,
	gradeRepo grade.Repository,
	teamRepo team.Repository,
	gameRepo game.Repository,
	cfg GameSyncConfig,
	logger *logging.Logger,
) *GameSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = 23
	}
	if cfg.EmptyRoundLimit <= 0 {
		cfg.EmptyRoundLimit = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultStageWorkers
	}

	return &GameSyncService{
		provider:  provider,
		gradeRepo: gradeRepo,
		teamRepo:  teamRepo,
		gameRepo:  gameRepo,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *GameSyncService) Run(ctx context.Context, opts GameSyncOptions) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameSyncService.Run")
	defer span.End()

	result := StageResult{Module: pipeline.ModuleGames, DryRun: opts.DryRun}

	grades, err := s.targetGrades(ctx, opts)
	if err != nil {
		return result, err
	}
	if len(grades) == 0 {
		result.Notes = append(result.Notes, "no grades to walk; run the teams stage first")
		return result, nil
	}

	now := s.now().UTC()

	type gradeRow struct {
		gradeID string
		games   []game.Game
		err     error
	}
	rows := make(chan gradeRow, len(grades))
	var failed atomic.Int32

	err = runPooled(s.cfg.Workers, len(grades), func(i int) {
		g := grades[i]
		games, walkErr := s.walkGrade(ctx, g, opts, now)
		if walkErr != nil {
			failed.Add(1)
			s.logger.WarnContext(ctx, "fixtures walk failed",
				"grade_id", g.ID,
				"competition_id", g.CompetitionID,
				"games_before_failure", len(games),
				"error", walkErr,
			)
		}
		rows <- gradeRow{gradeID: g.ID, games: games, err: walkErr}
	})
	if err != nil {
		return result, err
	}
	close(rows)

	var firstWalkErr error
	walkedOK := 0
	gameIndex := make(map[string]game.Game)
	for row := range rows {
		// Games collected before a mid-walk failure are still written;
		// the next run re-walks the grade and picks up the rest.
		for _, gm := range row.games {
			gameIndex[gm.ID] = gm
		}
		if row.err != nil {
			if firstWalkErr == nil {
				firstWalkErr = row.err
			}
			continue
		}
		walkedOK++
	}

	games := make([]game.Game, 0, len(gameIndex))
	for _, gm := range gameIndex {
		games = append(games, gm)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })

	result.OKCount = len(games)
	result.ErrorCount = int(failed.Load())
	result.Notes = append(result.Notes, fmt.Sprintf("%d games across %d grades", len(games), len(grades)))
	if result.ErrorCount > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d grades failed mid-walk", result.ErrorCount))
	}

	if walkedOK == 0 && firstWalkErr != nil {
		return result, fmt.Errorf("walk fixtures: %w", firstWalkErr)
	}

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry run: skipping game writes", "games", len(games))
		return result, nil
	}

	if len(games) > 0 {
		if err := s.gameRepo.UpsertBatch(ctx, games); err != nil {
			return result, fmt.Errorf("%w: upsert games: %v", ErrStore, err)
		}
	}

	s.logger.InfoContext(ctx, "fixtures synced",
		"games", len(games),
		"grades_walked", walkedOK,
		"failed_grades", result.ErrorCount,
	)
	return result, nil
}

// targetGrades picks the grades to walk: the ones fielding a home-club
// team. An explicit grade id bypasses the home-club scope.
func (s *GameSyncService) targetGrades(ctx context.Context, opts GameSyncOptions) ([]grade.Grade, error) {
	if opts.GradeID != "" {
		g, found, err := s.gradeRepo.Get(ctx, opts.GradeID)
		if err != nil {
			return nil, fmt.Errorf("%w: get grade: %v", ErrStore, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: grade %s", ErrNotFound, opts.GradeID)
		}
		return []grade.Grade{g}, nil
	}

	teams, err := s.teamRepo.List(ctx, team.Query{CompetitionID: opts.CompetitionID, HomeClubOnly: true})
	if err != nil {
		return nil, fmt.Errorf("%w: list home club teams: %v", ErrStore, err)
	}
	wanted := make(map[string]bool, len(teams))
	for _, t := range teams {
		if t.GradeID != "" {
			wanted[t.GradeID] = true
		}
	}
	if len(wanted) == 0 {
		return nil, nil
	}

	grades, err := s.gradeRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list grades: %v", ErrStore, err)
	}

	target := make([]grade.Grade, 0, len(wanted))
	for _, g := range grades {
		if wanted[g.ID] {
			target = append(target, g)
		}
	}

	return target, nil
}

func (s *GameSyncService) walkGrade(ctx context.Context, g grade.Grade, opts GameSyncOptions, now time.Time) ([]game.Game, error) {
	var games []game.Game
	emptyStreak := 0
	for round := 1; round <= s.cfg.MaxRounds; round++ {
		cards, err := s.provider.FetchRound(ctx, g.CompetitionID, g.ID, round)
		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrRejected):
			// The site answers rounds past the end of the draw with an
			// error page; that is the normal end of the walk.
			return games, nil
		default:
			return games, fmt.Errorf("fetch round %d: %w", round, err)
		}

		if len(cards) == 0 {
			emptyStreak++
			if emptyStreak >= s.cfg.EmptyRoundLimit {
				return games, nil
			}
			continue
		}
		emptyStreak = 0

		for _, card := range cards {
			gm := gameFromCard(card, g, round, now)
			if opts.MentoneOnly && !gm.MentonePlaying {
				continue
			}
			games = append(games, gm)
		}
	}

	return games, nil
}

func gameFromCard(card ExternalGameCard, g grade.Grade, round int, now time.Time) game.Game {
	status := game.StatusScheduled
	if kw, ok := game.StatusFromKeyword(card.StatusToken); ok {
		status = kw
	} else if card.HomeScore != nil && card.AwayScore != nil {
		status = game.StatusCompleted
	}

	if card.Round > 0 {
		round = card.Round
	}

	return game.Game{
		ID:             card.GameID,
		CompetitionID:  g.CompetitionID,
		GradeID:        g.ID,
		Round:          round,
		Date:           card.StartsAt,
		Venue:          card.Venue,
		VenueFieldCode: card.VenueCode,
		HomeTeam:       game.Side{ID: card.HomeID, Name: card.HomeName, Score: card.HomeScore},
		AwayTeam:       game.Side{ID: card.AwayID, Name: card.AwayName, Score: card.AwayScore},
		Status:         status,
		MentonePlaying: club.IsHomeClubName(card.HomeName) || club.IsHomeClubName(card.AwayName),
		URL:            card.URL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
