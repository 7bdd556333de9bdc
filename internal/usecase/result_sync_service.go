package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

type ResultSyncOptions struct {
	// GameID restricts the check to one game and ignores the status
	// filter, the window, and Force.
	GameID        string
	DaysBack      int
	CompetitionID string
	Limit         int
	// Force re-checks games already in a terminal state.
	Force  bool
	DryRun bool
}

type ResultSyncConfig struct {
	DaysBack int
	Workers  int
}

// ResultSyncService re-checks recently played games against their detail
// pages and applies the outcome. It writes only the result-owned fields, so
// a fixtures walk and a result check never fight over a document.
type ResultSyncService struct {
	provider HockeyVictoriaProvider
	gameRepo game.Repository
	cfg      ResultSyncConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewResultSyncService(
	provider HockeyVictoriaProvider,
	gameRepo game.Repository,
	cfg ResultSyncConfig,
	logger *logging.Logger,
) *ResultSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = 7
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultStageWorkers
	}

	return &ResultSyncService{
		provider: provider,
		gameRepo: gameRepo,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *ResultSyncService) Run(ctx context.Context, opts ResultSyncOptions) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultSyncService.Run")
	defer span.End()

	result := StageResult{Module: pipeline.ModuleResults, DryRun: opts.DryRun}

	games, err := s.selectGames(ctx, opts)
	if err != nil {
		return result, err
	}
	if len(games) == 0 {
		result.Notes = append(result.Notes, "no games due for a result check")
		return result, nil
	}

	now := s.now().UTC()

	type resultRow struct {
		update  *game.ResultUpdate
		skipped bool
		err     error
	}
	rows := make(chan resultRow, len(games))
	var failed atomic.Int32

	err = runPooled(s.cfg.Workers, len(games), func(i int) {
		g := games[i]
		detail, fetchErr := s.provider.FetchGameDetail(ctx, g.ID)
		if fetchErr != nil {
			failed.Add(1)
			s.logger.WarnContext(ctx, "game detail fetch failed",
				"game_id", g.ID,
				"error", fetchErr,
			)
			rows <- resultRow{err: fetchErr}
			return
		}
		update, reason := buildResultUpdate(g, detail, now)
		if update == nil {
			s.logger.DebugContext(ctx, "game skipped during result check", "game_id", g.ID, "reason", reason)
			rows <- resultRow{skipped: true}
			return
		}
		rows <- resultRow{update: update}
	})
	if err != nil {
		return result, err
	}
	close(rows)

	var firstFetchErr error
	skipped := 0
	updates := make([]game.ResultUpdate, 0, len(games))
	for row := range rows {
		switch {
		case row.err != nil:
			if firstFetchErr == nil {
				firstFetchErr = row.err
			}
		case row.skipped:
			skipped++
		default:
			updates = append(updates, *row.update)
		}
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].GameID < updates[j].GameID })

	result.OKCount = len(updates)
	result.ErrorCount = int(failed.Load())
	result.Notes = append(result.Notes, fmt.Sprintf("%d results from %d games", len(updates), len(games)))
	if skipped > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d games skipped", skipped))
	}

	if len(updates) == 0 && skipped == 0 && firstFetchErr != nil {
		return result, fmt.Errorf("fetch game details: %w", firstFetchErr)
	}

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry run: skipping result writes", "results", len(updates))
		return result, nil
	}

	if len(updates) > 0 {
		if err := s.gameRepo.ApplyResults(ctx, updates); err != nil {
			return result, fmt.Errorf("%w: apply results: %v", ErrStore, err)
		}
	}

	s.logger.InfoContext(ctx, "results synced",
		"results", len(updates),
		"skipped", skipped,
		"failed", result.ErrorCount,
	)
	return result, nil
}

func (s *ResultSyncService) selectGames(ctx context.Context, opts ResultSyncOptions) ([]game.Game, error) {
	if opts.GameID != "" {
		g, found, err := s.gameRepo.Get(ctx, opts.GameID)
		if err != nil {
			return nil, fmt.Errorf("%w: get game: %v", ErrStore, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: game %s", ErrNotFound, opts.GameID)
		}
		return []game.Game{g}, nil
	}

	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = s.cfg.DaysBack
	}
	now := s.now().UTC()

	// Results only ever matter for games the home club plays; the rest of
	// the association's scorelines arrive through the ladder.
	games, err := s.gameRepo.ListForResults(ctx, game.ResultQuery{
		Since:           now.AddDate(0, 0, -daysBack),
		Until:           now,
		CompetitionID:   opts.CompetitionID,
		HomeClubOnly:    true,
		IncludeTerminal: opts.Force,
		Limit:           opts.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list games for results: %v", ErrStore, err)
	}

	return games, nil
}

// buildResultUpdate maps a detail page onto the result-owned fields. A nil
// update means the page taught us nothing worth writing.
func buildResultUpdate(g game.Game, detail ExternalGameDetail, now time.Time) (*game.ResultUpdate, string) {
	status, ok := game.StatusFromKeyword(detail.StatusKeyword)
	switch {
	case ok:
	case detail.HomeScore != nil && detail.AwayScore != nil:
		status = game.StatusCompleted
	case g.Date.After(now):
		return nil, "not started yet"
	default:
		// Played, no score, no special status. The page will usually fill
		// in later; unknown_outcome keeps the game on the re-check list.
		status = game.StatusUnknownOutcome
	}

	update := game.ResultUpdate{
		GameID:      g.ID,
		Status:      status,
		HomeScore:   detail.HomeScore,
		AwayScore:   detail.AwayScore,
		WinnerText:  detail.WinnerText,
		RetrievedAt: now,
	}
	if status == game.StatusCompleted && g.MentonePlaying &&
		detail.HomeScore != nil && detail.AwayScore != nil {
		update.MentoneResult = game.ResultFor(
			*detail.HomeScore, *detail.AwayScore,
			club.IsHomeClubName(g.HomeTeam.Name), club.IsHomeClubName(g.AwayTeam.Name),
		)
	}

	return &update, ""
}
