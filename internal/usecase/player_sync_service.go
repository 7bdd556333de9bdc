package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/classify"
	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/domain/player"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

type PlayerSyncOptions struct {
	TeamID     string
	LimitTeams int
	DryRun     bool
}

type PlayerSyncConfig struct {
	Workers int
}

// PlayerSyncService builds player documents for every home-club team. The
// team statistics page supplies the roster and the list of game pages; each
// unprocessed game page supplies per-game participation, which is the source
// of truth for the stat counters.
type PlayerSyncService struct {
	provider   HockeyVictoriaProvider
	teamRepo   team.Repository
	gradeRepo  grade.Repository
	gameRepo   game.Repository
	playerRepo player.Repository
	cfg        PlayerSyncConfig
	logger     *logging.Logger
	now        func() time.Time
}

func NewPlayerSyncService(
	provider HockeyVictoriaProvider,
	teamRepo team.Repository,
	gradeRepo grade.Repository,
	gameRepo game.Repository,
	playerRepo player.Repository,
	cfg PlayerSyncConfig,
	logger *logging.Logger,
) *PlayerSyncService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultStageWorkers
	}

	return &PlayerSyncService{
		provider:   provider,
		teamRepo:   teamRepo,
		gradeRepo:  gradeRepo,
		gameRepo:   gameRepo,
		playerRepo: playerRepo,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

type teamSyncOutput struct {
	players        []player.Player
	updates        []game.ParticipationUpdate
	pagesProcessed int
	pageErrors     int
}

func (s *PlayerSyncService) Run(ctx context.Context, opts PlayerSyncOptions) (StageResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerSyncService.Run")
	defer span.End()

	result := StageResult{Module: pipeline.ModulePlayers, DryRun: opts.DryRun}

	teams, err := s.selectTeams(ctx, opts)
	if err != nil {
		return result, err
	}
	if len(teams) == 0 {
		result.Notes = append(result.Notes, "no home club teams in store")
		return result, nil
	}

	now := s.now().UTC()

	type teamRow struct {
		teamID string
		out    teamSyncOutput
		err    error
	}
	rows := make(chan teamRow, len(teams))
	var failedTeams atomic.Int32

	err = runPooled(s.cfg.Workers, len(teams), func(i int) {
		t := teams[i]
		out, syncErr := s.syncTeam(ctx, t, now)
		if syncErr != nil {
			failedTeams.Add(1)
			s.logger.WarnContext(ctx, "player sync failed for team",
				"team_id", t.ID,
				"team_name", t.Name,
				"error", syncErr,
			)
		}
		rows <- teamRow{teamID: t.ID, out: out, err: syncErr}
	})
	if err != nil {
		return result, err
	}
	close(rows)

	var firstTeamErr error
	pages, pageErrors, teamsOK := 0, 0, 0
	merged := make(map[string]player.Player)
	var updates []game.ParticipationUpdate
	for row := range rows {
		if row.err != nil {
			if firstTeamErr == nil {
				firstTeamErr = row.err
			}
			continue
		}
		teamsOK++
		pages += row.out.pagesProcessed
		pageErrors += row.out.pageErrors
		updates = append(updates, row.out.updates...)
		for _, p := range row.out.players {
			cur, ok := merged[p.ID]
			if !ok {
				merged[p.ID] = p
				continue
			}
			// A player doubling up across teams arrives once per team;
			// both copies started from the same stored document.
			for _, m := range p.Teams {
				cur.AddTeam(m)
			}
			cur.Participation = player.MergeAppearances(cur.Participation, p.Participation)
			cur.Stats = mergeStats(cur.Stats, player.StatsFrom(cur.Participation))
			if cur.Name == "" {
				cur.Name = p.Name
			}
			merged[p.ID] = cur
		}
	}

	if teamsOK == 0 && firstTeamErr != nil {
		return result, fmt.Errorf("sync players: %w", firstTeamErr)
	}

	players := make([]player.Player, 0, len(merged))
	for _, p := range merged {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
	sort.Slice(updates, func(i, j int) bool { return updates[i].GameID < updates[j].GameID })

	result.OKCount = len(players)
	result.ErrorCount = int(failedTeams.Load()) + pageErrors
	result.Notes = append(result.Notes,
		fmt.Sprintf("%d players across %d teams", len(players), len(teams)),
		fmt.Sprintf("%d game pages processed", pages),
	)
	if result.ErrorCount > 0 {
		result.Notes = append(result.Notes, fmt.Sprintf("%d fetch failures", result.ErrorCount))
	}

	if opts.DryRun {
		s.logger.InfoContext(ctx, "dry run: skipping player writes",
			"players", len(players),
			"participation_updates", len(updates),
		)
		return result, nil
	}

	if len(players) > 0 {
		if err := s.playerRepo.UpsertBatch(ctx, players); err != nil {
			return result, fmt.Errorf("%w: upsert players: %v", ErrStore, err)
		}
	}
	if len(updates) > 0 {
		if err := s.gameRepo.ApplyParticipation(ctx, updates); err != nil {
			return result, fmt.Errorf("%w: apply participation: %v", ErrStore, err)
		}
	}

	s.logger.InfoContext(ctx, "players synced",
		"players", len(players),
		"teams", teamsOK,
		"game_pages", pages,
		"failed", result.ErrorCount,
	)
	return result, nil
}

func (s *PlayerSyncService) selectTeams(ctx context.Context, opts PlayerSyncOptions) ([]team.Team, error) {
	if opts.TeamID != "" {
		t, found, err := s.teamRepo.Get(ctx, opts.TeamID)
		if err != nil {
			return nil, fmt.Errorf("%w: get team: %v", ErrStore, err)
		}
		if !found {
			return nil, fmt.Errorf("%w: team %s", ErrNotFound, opts.TeamID)
		}
		return []team.Team{t}, nil
	}

	teams, err := s.teamRepo.List(ctx, team.Query{HomeClubOnly: true, Limit: opts.LimitTeams})
	if err != nil {
		return nil, fmt.Errorf("%w: list home club teams: %v", ErrStore, err)
	}

	return teams, nil
}

func (s *PlayerSyncService) syncTeam(ctx context.Context, t team.Team, now time.Time) (teamSyncOutput, error) {
	var out teamSyncOutput

	stats, err := s.provider.FetchTeamStats(ctx, t.CompetitionID, t.ID)
	if err != nil {
		return out, fmt.Errorf("fetch team stats: %w", err)
	}

	gradeName := ""
	if g, found, gradeErr := s.gradeRepo.Get(ctx, t.GradeID); gradeErr != nil {
		s.logger.WarnContext(ctx, "grade lookup failed during player sync", "grade_id", t.GradeID, "error", gradeErr)
	} else if found {
		gradeName = g.Name
	}
	membership := player.TeamMembership{
		TeamID:    t.ID,
		TeamName:  t.Name,
		GradeID:   t.GradeID,
		GradeName: gradeName,
	}

	ids := make([]string, 0, len(stats.Roster))
	for _, entry := range stats.Roster {
		if entry.PlayerID != "" {
			ids = append(ids, entry.PlayerID)
		}
	}
	existing, err := s.playerRepo.GetMany(ctx, ids)
	if err != nil {
		return out, fmt.Errorf("%w: load roster players: %v", ErrStore, err)
	}
	stored := make(map[string]player.Player, len(existing))
	for _, p := range existing {
		stored[p.ID] = p
	}

	roster := make(map[string]*player.Player, len(stats.Roster))
	for _, entry := range stats.Roster {
		if entry.PlayerID == "" {
			continue
		}
		p, ok := stored[entry.PlayerID]
		if !ok {
			p = player.Player{ID: entry.PlayerID, CreatedAt: now}
		}
		if entry.Name != "" {
			p.Name = entry.Name
		}
		p.Role = roleFromToken(entry.Role, p.Role)
		if p.Gender == "" || p.Gender == classify.GenderUnknown {
			p.Gender = t.Gender
		}
		p.AddTeam(membership)
		p.UpdatedAt = now
		roster[entry.PlayerID] = &p
	}

	for _, rawURL := range stats.GameURLs {
		gameID := gameIDFromURL(rawURL)
		if gameID == "" {
			continue
		}
		storedGame, found, getErr := s.gameRepo.Get(ctx, gameID)
		if getErr != nil {
			return out, fmt.Errorf("%w: get game %s: %v", ErrStore, gameID, getErr)
		}
		if !found {
			// The fixtures walk has not seen it yet; the next games run
			// will, and this stage picks it up afterwards.
			s.logger.DebugContext(ctx, "game page not in store, deferring", "game_id", gameID, "team_id", t.ID)
			continue
		}
		if !storedGame.Status.Terminal() || storedGame.ProcessedFor(t.ID) {
			continue
		}

		detail, fetchErr := s.provider.FetchGameDetail(ctx, gameID)
		if fetchErr != nil {
			out.pageErrors++
			s.logger.WarnContext(ctx, "game detail fetch failed during player sync",
				"game_id", gameID,
				"team_id", t.ID,
				"error", fetchErr,
			)
			continue
		}

		entries := make([]game.Appearance, 0, len(detail.Participation))
		for _, part := range detail.Participation {
			if part.PlayerID == "" {
				continue
			}
			entries = append(entries, game.Appearance{
				PlayerID:    part.PlayerID,
				Name:        part.Name,
				Goals:       part.Goals,
				GreenCards:  part.GreenCards,
				YellowCards: part.YellowCards,
				RedCards:    part.RedCards,
			})
			if p, ok := roster[part.PlayerID]; ok {
				p.Participation = player.MergeAppearances(p.Participation, []player.Appearance{{
					GameID:      gameID,
					TeamID:      t.ID,
					Goals:       part.Goals,
					GreenCards:  part.GreenCards,
					YellowCards: part.YellowCards,
					RedCards:    part.RedCards,
				}})
			}
		}
		out.updates = append(out.updates, game.ParticipationUpdate{
			GameID:           gameID,
			Entries:          entries,
			ProcessedForTeam: t.ID,
			At:               now,
		})
		out.pagesProcessed++
	}

	out.players = make([]player.Player, 0, len(roster))
	for _, p := range roster {
		p.Stats = mergeStats(p.Stats, player.StatsFrom(p.Participation))
		out.players = append(out.players, *p)
	}
	sort.Slice(out.players, func(i, j int) bool { return out.players[i].ID < out.players[j].ID })

	return out, nil
}

func roleFromToken(token string, current player.Role) player.Role {
	switch player.Role(strings.ToLower(strings.TrimSpace(token))) {
	case player.RoleGoalkeeper:
		return player.RoleGoalkeeper
	case player.RoleField:
		return player.RoleField
	}
	if current != "" {
		return current
	}

	return player.RoleField
}

// mergeStats prefers freshly computed counters but keeps a stored non-zero
// value when the new one is zero, so a partial re-sync never erases history.
func mergeStats(existing, computed player.Stats) player.Stats {
	merged := computed
	if merged.Matches == 0 {
		merged.Matches = existing.Matches
	}
	if merged.Goals == 0 {
		merged.Goals = existing.Goals
	}
	if merged.Assists == 0 {
		merged.Assists = existing.Assists
	}
	if merged.GreenCards == 0 {
		merged.GreenCards = existing.GreenCards
	}
	if merged.YellowCards == 0 {
		merged.YellowCards = existing.YellowCards
	}
	if merged.RedCards == 0 {
		merged.RedCards = existing.RedCards
	}

	return merged
}

func gameIDFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if i := strings.LastIndexByte(trimmed, '/'); i >= 0 {
		trimmed = trimmed[i+1:]
	}

	return trimmed
}
