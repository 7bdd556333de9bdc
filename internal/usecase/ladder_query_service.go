package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/domain/ladder"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/platform/cache"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

// Where a standing came from.
const (
	LadderSourceCache = "cache"
	LadderSourceLive  = "live"
)

// LadderStanding is the home club's position in one grade, served to the
// dashboard.
type LadderStanding struct {
	CompetitionID string `json:"comp_id"`
	GradeID       string `json:"fixture_id"`
	Position      int    `json:"position"`
	Points        int    `json:"points"`
	Source        string `json:"source"`
}

type LadderQueryConfig struct {
	// TTL bounds how old a served standing may be before the source site
	// is asked again.
	TTL time.Duration
}

// LadderQueryService answers dashboard ladder reads. Most hits are served
// from the stored snapshot or the in-process memo; only a stale grade costs
// a live page fetch, and that fetch refreshes the snapshot and the team's
// ladder block on the way through.
type LadderQueryService struct {
	provider   HockeyVictoriaProvider
	teamRepo   team.Repository
	ladderRepo ladder.Repository
	store      *cache.Store
	cfg        LadderQueryConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewLadderQueryService(
	provider HockeyVictoriaProvider,
	teamRepo team.Repository,
	ladderRepo ladder.Repository,
	cfg LadderQueryConfig,
	logger *logging.Logger,
) *LadderQueryService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 6 * time.Hour
	}

	return &LadderQueryService{
		provider:   provider,
		teamRepo:   teamRepo,
		ladderRepo: ladderRepo,
		store:      cache.NewStore(cfg.TTL),
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *LadderQueryService) Standing(ctx context.Context, competitionID, gradeID string) (LadderStanding, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LadderQueryService.Standing")
	defer span.End()

	if competitionID == "" || gradeID == "" {
		return LadderStanding{}, fmt.Errorf("%w: comp_id and fixture_id are required", ErrInvalidInput)
	}

	key := ladder.Key(competitionID, gradeID)
	if v, ok := s.store.Get(ctx, key); ok {
		if standing, valid := v.(LadderStanding); valid {
			standing.Source = LadderSourceCache
			return standing, nil
		}
	}

	standing, err := s.load(ctx, competitionID, gradeID)
	if err != nil {
		return LadderStanding{}, err
	}
	s.store.Set(ctx, key, standing)

	return standing, nil
}

func (s *LadderQueryService) load(ctx context.Context, competitionID, gradeID string) (LadderStanding, error) {
	key := ladder.Key(competitionID, gradeID)

	snap, found, err := s.ladderRepo.Get(ctx, key)
	if err != nil {
		s.logger.WarnContext(ctx, "ladder snapshot read failed, falling back to live fetch",
			"key", key,
			"error", err,
		)
	}
	if err == nil && found && s.now().UTC().Sub(snap.FetchedAt) <= s.cfg.TTL {
		return LadderStanding{
			CompetitionID: competitionID,
			GradeID:       gradeID,
			Position:      snap.Position,
			Points:        snap.Points,
			Source:        LadderSourceCache,
		}, nil
	}

	rows, err := s.provider.FetchLadder(ctx, competitionID, gradeID)
	if err != nil {
		return LadderStanding{}, fmt.Errorf("fetch ladder comp_id=%s fixture_id=%s: %w", competitionID, gradeID, err)
	}
	row, ok := findHomeClubRow(rows)
	if !ok {
		return LadderStanding{}, fmt.Errorf("%w: no home club row on ladder comp_id=%s fixture_id=%s", ErrNotFound, competitionID, gradeID)
	}

	// Refresh writes are best effort: a read must not fail because a
	// backend write did.
	now := s.now().UTC()
	fresh := ladder.Snapshot{
		CompetitionID: competitionID,
		GradeID:       gradeID,
		Position:      row.Position,
		Points:        row.Points,
		FetchedAt:     now,
	}
	if err := s.ladderRepo.Put(ctx, fresh); err != nil {
		s.logger.WarnContext(ctx, "ladder snapshot write failed", "key", key, "error", err)
	}
	if row.TeamID != "" {
		update := team.LadderUpdate{
			TeamID:   row.TeamID,
			Position: row.Position,
			Points:   row.Points,
			Stats:    ladderStatsFromRow(row),
			At:       now,
		}
		if err := s.teamRepo.UpdateLadder(ctx, []team.LadderUpdate{update}); err != nil {
			s.logger.WarnContext(ctx, "team ladder refresh failed", "team_id", row.TeamID, "error", err)
		}
	}

	return LadderStanding{
		CompetitionID: competitionID,
		GradeID:       gradeID,
		Position:      row.Position,
		Points:        row.Points,
		Source:        LadderSourceLive,
	}, nil
}

func findHomeClubRow(rows []ExternalLadderRow) (ExternalLadderRow, bool) {
	for _, row := range rows {
		if club.IsHomeClubName(row.TeamName) {
			return row, true
		}
	}

	return ExternalLadderRow{}, false
}
