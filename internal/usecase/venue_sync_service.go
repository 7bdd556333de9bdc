package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/domain/venue"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

type VenueSyncOptions struct {
	DaysBack int
	Limit    int
	DryRun   bool
}

type VenueSyncConfig struct {
	DaysBack int
	Workers  int
}

// VenueSyncService harvests venue blocks from recent home-club game pages.
// Venues only ever appear as a side panel on game details, so the stage
// rides on games the results stage has already discovered.
type VenueSyncService struct {
	provider  HockeyVictoriaProvider
	gameRepo  game.Repository
	venueRepo venue.Repository
	cfg       VenueSyncConfig
	logger    *logging.Logger
	now       func() time.Time
}

func NewVenueSyncService(
	provider HockeyVictoriaProvider,
	gameRepo game.Repository,
	venueRepo venue.Repository,
	cfg VenueSyncConfig,
	logger *logging.Logger,
) *VenueSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.DaysBack <= 0 {
		cfg.DaysBack = 14
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultStageWorkers
	}

	return &VenueSyncService{
		provider:  provider,
		gameRepo:  gameRepo,
		venueRepo: venueRepo,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *VenueSyncService) Run(ctx context.Context, opts VenueSyncOptions) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.VenueSyncService.Run")
	defer span.End()

	result := StageResult{Module: pipeline.ModuleVenues, DryRun: opts.DryRun}

	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = s.cfg.DaysBack
	}
	now := s.now().UTC()

	games, err := s.gameRepo.ListForResults(ctx, game.ResultQuery{
		Since:           now.AddDate(0, 0, -daysBack),
		Until:           now,
		HomeClubOnly:    true,
		IncludeTerminal: true,
		Limit:           opts.Limit,
	})
	if err != nil {
		return result, fmt.Errorf("%w: list recent games: %v", ErrStore, err)
	}
	if len(games) == 0 {
		result.Notes = append(result.Notes, "no recent games to harvest venues from")
		return result, nil
	}

	type venueRow struct {
		venue *venue.Venue
		err   error
	}
	rows := make(chan venueRow, len(games))
	var failed atomic.Int32

	err = runPooled(s.cfg.Workers, len(games), func(i int) {
		g := games[i]
		detail, fetchErr := s.provider.FetchGameDetail(ctx, g.ID)
		if fetchErr != nil {
			failed.Add(1)
			s.logger.WarnContext(ctx, "game detail fetch failed during venue sync",
				"game_id", g.ID,
				"error", fetchErr,
			)
			rows <- venueRow{err: fetchErr}
			return
		}
		if detail.Venue == nil || detail.Venue.Name == "" {
			rows <- venueRow{}
			return
		}

		v := venue.Venue{
			ID:        venue.Slug(detail.Venue.Name, detail.Venue.Address),
			Name:      detail.Venue.Name,
			Address:   detail.Venue.Address,
			FieldCode: detail.Venue.FieldCode,
			MapURL:    detail.Venue.MapURL,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if g.URL != "" {
			v.AddSource(g.URL)
		}
		rows <- venueRow{venue: &v}
	})
	if err != nil {
		return result, err
	}
	close(rows)

	var firstFetchErr error
	index := make(map[string]venue.Venue)
	for row := range rows {
		if row.err != nil {
			if firstFetchErr == nil {
				firstFetchErr = row.err
			}
			continue
		}
		if row.venue == nil {
			continue
		}
		v := *row.venue
		cur, ok := index[v.ID]
		if !ok {
			index[v.ID] = v
			continue
		}
		if cur.Address == "" {
			cur.Address = v.Address
		}
		if cur.FieldCode == "" {
			cur.FieldCode = v.FieldCode
		}
		if cur.MapURL == "" {
			cur.MapURL = v.MapURL
		}
		for _, u := range v.SourceGameURLs {
			cur.AddSource(u)
		}
		index[v.ID] = cur
	}

	venues := make([]venue.Venue, 0, len(index))
	for _, v := range index {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })

	result.OKCount = len(venues)
	result.ErrorCount = int(failed.Load())
	result.Notes = append(result.Notes, fmt.Sprintf("%d venues from %d games", len(venues), len(games)))
	if result.ErrorCount > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d game pages failed to fetch", result.ErrorCount))
	}

	if len(venues) == 0 && firstFetchErr != nil {
		return result, fmt.Errorf("fetch game pages: %w", firstFetchErr)
	}

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry run: skipping venue writes", "venues", len(venues))
		return result, nil
	}

	if len(venues) > 0 {
		if err := s.venueRepo.UpsertBatch(ctx, venues); err != nil {
			return result, fmt.Errorf("%w: upsert venues: %v", ErrStore, err)
		}
	}

	s.logger.InfoContext(ctx, "venues synced",
		"venues", len(venues),
		"games", len(games),
		"failed", result.ErrorCount,
	)
	return result, nil
}
