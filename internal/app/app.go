package app

import (
	"context"
	"fmt"
	"net/http"

	firestoredb "cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	"github.com/mentonehc/hvsync/external/hockeyvictoria"
	"github.com/mentonehc/hvsync/internal/config"
	"github.com/mentonehc/hvsync/internal/domain/club"
	"github.com/mentonehc/hvsync/internal/domain/competition"
	"github.com/mentonehc/hvsync/internal/domain/game"
	"github.com/mentonehc/hvsync/internal/domain/grade"
	"github.com/mentonehc/hvsync/internal/domain/ladder"
	"github.com/mentonehc/hvsync/internal/domain/player"
	"github.com/mentonehc/hvsync/internal/domain/team"
	"github.com/mentonehc/hvsync/internal/domain/venue"
	cacherepo "github.com/mentonehc/hvsync/internal/infrastructure/repository/cache"
	firestorerepo "github.com/mentonehc/hvsync/internal/infrastructure/repository/firestore"
	memoryrepo "github.com/mentonehc/hvsync/internal/infrastructure/repository/memory"
	postgresrepo "github.com/mentonehc/hvsync/internal/infrastructure/repository/postgres"
	"github.com/mentonehc/hvsync/internal/interfaces/httpapi"
	basecache "github.com/mentonehc/hvsync/internal/platform/cache"
	idgen "github.com/mentonehc/hvsync/internal/platform/id"
	"github.com/mentonehc/hvsync/internal/platform/logging"
	"github.com/mentonehc/hvsync/internal/usecase"
)

// Application wires the scraper client, the store, and the services once, so
// the HTTP binary and the pipeline CLI assemble the exact same pipeline.
type Application struct {
	Orchestrator *usecase.PipelineOrchestratorService
	LadderQuery  *usecase.LadderQueryService

	cfg        config.Config
	logger     *logging.Logger
	closeStore func() error
}

type repositories struct {
	competitions competition.Repository
	grades       grade.Repository
	clubs        club.Repository
	teams        team.Repository
	games        game.Repository
	players      player.Repository
	venues       venue.Repository
	ladders      ladder.Repository
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.Default()
	}

	repos, closeStore, err := buildRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.CacheEnabled {
		cacheStore := basecache.NewStore(cfg.CacheTTL)
		repos.teams = cacherepo.NewTeamRepository(repos.teams, cacheStore)
		repos.grades = cacherepo.NewGradeRepository(repos.grades, cacheStore)
	}

	provider := hockeyvictoria.NewClient(hockeyvictoria.ClientConfig{
		BaseURL:          cfg.ScraperBaseURL,
		UserAgent:        cfg.ScraperUserAgent,
		Timeout:          cfg.ScraperTimeout,
		MaxRetries:       cfg.ScraperMaxRetries,
		RetryBase:        cfg.ScraperRetryBase,
		RequestsPerSec:   cfg.ScraperRequestsPerSec,
		BreakerThreshold: cfg.ScraperCircuitFailureCount,
		BreakerCoolOff:   cfg.ScraperCircuitOpenTimeout,
		Logger:           logger,
	})

	workers := cfg.PipelineWorkers
	orchestrator := usecase.NewPipelineOrchestratorService(usecase.PipelineStages{
		Competitions: usecase.NewCompetitionSyncService(provider, repos.competitions, repos.grades, logger),
		Teams: usecase.NewTeamSyncService(provider, repos.grades, repos.teams, repos.clubs, repos.ladders,
			usecase.TeamSyncConfig{StaleAfter: cfg.GradeStaleAfter, Workers: workers}, logger),
		Games: usecase.NewGameSyncService(provider, repos.grades, repos.teams, repos.games,
			usecase.GameSyncConfig{Workers: workers}, logger),
		Results: usecase.NewResultSyncService(provider, repos.games,
			usecase.ResultSyncConfig{DaysBack: cfg.ResultsDaysBack, Workers: workers}, logger),
		Players: usecase.NewPlayerSyncService(provider, repos.teams, repos.grades, repos.games, repos.players,
			usecase.PlayerSyncConfig{Workers: workers}, logger),
		Ladder: usecase.NewLadderSyncService(provider, repos.teams, repos.ladders,
			usecase.LadderSyncConfig{Workers: workers}, logger),
		Venues: usecase.NewVenueSyncService(provider, repos.games, repos.venues,
			usecase.VenueSyncConfig{DaysBack: cfg.VenueDaysBack, Workers: workers}, logger),
	}, idgen.NewRandomGenerator(), usecase.PipelineOrchestratorConfig{
		RunDeadline: cfg.PipelineRunDeadline,
		RetainRuns:  cfg.PipelineRetainRuns,
	}, logger)

	ladderQuery := usecase.NewLadderQueryService(provider, repos.teams, repos.ladders,
		usecase.LadderQueryConfig{TTL: cfg.LadderCacheTTL}, logger)

	return &Application{
		Orchestrator: orchestrator,
		LadderQuery:  ladderQuery,
		cfg:          cfg,
		logger:       logger,
		closeStore:   closeStore,
	}, nil
}

// Close releases the store connection.
func (a *Application) Close() error {
	if a == nil || a.closeStore == nil {
		return nil
	}
	return a.closeStore()
}

// HTTPServer builds the service's HTTP server over the shared services.
func (a *Application) HTTPServer() (*http.Server, error) {
	handler := httpapi.NewHandler(a.Orchestrator, a.LadderQuery, a.logger)
	router := httpapi.NewRouter(handler, a.logger, a.cfg.CORSAllowedOrigins, a.cfg.PipelineTriggerToken)

	server := &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
	}
	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func buildRepositories(ctx context.Context, cfg config.Config, logger *logging.Logger) (repositories, func() error, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := openPostgres(ctx, cfg)
		if err != nil {
			return repositories{}, nil, err
		}
		return repositories{
			competitions: postgresrepo.NewCompetitionRepository(db),
			grades:       postgresrepo.NewGradeRepository(db),
			clubs:        postgresrepo.NewClubRepository(db),
			teams:        postgresrepo.NewTeamRepository(db),
			games:        postgresrepo.NewGameRepository(db),
			players:      postgresrepo.NewPlayerRepository(db),
			venues:       postgresrepo.NewVenueRepository(db),
			ladders:      postgresrepo.NewLadderRepository(db),
		}, db.Close, nil

	case config.StoreMemory:
		logger.Warn("memory store selected, data will not survive a restart")
		return repositories{
			competitions: memoryrepo.NewCompetitionRepository(),
			grades:       memoryrepo.NewGradeRepository(),
			clubs:        memoryrepo.NewClubRepository(),
			teams:        memoryrepo.NewTeamRepository(),
			games:        memoryrepo.NewGameRepository(),
			players:      memoryrepo.NewPlayerRepository(),
			venues:       memoryrepo.NewVenueRepository(),
			ladders:      memoryrepo.NewLadderRepository(),
		}, func() error { return nil }, nil

	default:
		project := cfg.FirestoreProjectID
		if project == "" {
			project = firestoredb.DetectProjectID
		}
		var opts []option.ClientOption
		if cfg.FirestoreCredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
		}
		client, err := firestoredb.NewClient(ctx, project, opts...)
		if err != nil {
			return repositories{}, nil, fmt.Errorf("open firestore client: %w", err)
		}
		return repositories{
			competitions: firestorerepo.NewCompetitionRepository(client),
			grades:       firestorerepo.NewGradeRepository(client),
			clubs:        firestorerepo.NewClubRepository(client),
			teams:        firestorerepo.NewTeamRepository(client),
			games:        firestorerepo.NewGameRepository(client),
			players:      firestorerepo.NewPlayerRepository(client),
			venues:       firestorerepo.NewVenueRepository(client),
			ladders:      firestorerepo.NewLadderRepository(client),
		}, client.Close, nil
	}
}
