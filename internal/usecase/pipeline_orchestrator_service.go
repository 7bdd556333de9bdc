package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/platform/id"
	"github.com/mentonehc/hvsync/internal/platform/logging"
)

// RunOptions selects what a pipeline run does. Either Mode or an explicit
// Modules list picks the stages; the rest are per-stage selectors that only
// apply to the stages that understand them.
type RunOptions struct {
	Mode    pipeline.Mode
	Modules []pipeline.Module
	DryRun  bool

	DaysBack      int
	LimitGames    int
	LimitTeams    int
	CompetitionID string
	GradeID       string
	GameID        string
	TeamID        string
	MentoneOnly   bool
	Force         bool
}

// PipelineStages bundles the seven stage services the orchestrator drives.
type PipelineStages struct {
	Competitions *CompetitionSyncService
	Teams        *TeamSyncService
	Games        *GameSyncService
	Results      *ResultSyncService
	Players      *PlayerSyncService
	Ladder       *LadderSyncService
	Venues       *VenueSyncService
}

type PipelineOrchestratorConfig struct {
	// RunDeadline bounds one whole run; a stuck source must not hold a
	// scheduler slot forever.
	RunDeadline time.Duration
	// RetainRuns caps the in-memory run registry.
	RetainRuns int
}

// PipelineOrchestratorService executes stages in dependency order and keeps
// a queryable registry of recent runs. A failed critical stage aborts the
// run; any other failure is recorded and the run moves on.
type PipelineOrchestratorService struct {
	stages PipelineStages
	idGen  id.Generator
	cfg    PipelineOrchestratorConfig
	logger *logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	runs  map[string]*pipeline.Run
	order []string
}

func NewPipelineOrchestratorService(
	stages PipelineStages,
	idGen id.Generator,
	cfg PipelineOrchestratorConfig,
	logger *logging.Logger,
) *PipelineOrchestratorService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RunDeadline <= 0 {
		cfg.RunDeadline = 30 * time.Minute
	}
	if cfg.RetainRuns <= 0 {
		cfg.RetainRuns = 50
	}

	return &PipelineOrchestratorService{
		stages: stages,
		idGen:  idGen,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		runs:   make(map[string]*pipeline.Run),
	}
}

// Run executes synchronously and returns the finished run record. The error
// is non-nil only for invalid input, a critical-stage abort, or
// cancellation; non-critical stage failures are visible on the record.
func (s *PipelineOrchestratorService) Run(ctx context.Context, opts RunOptions) (pipeline.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineOrchestratorService.Run")
	defer span.End()

	run, err := s.register(opts)
	if err != nil {
		return pipeline.Run{}, err
	}

	runErr := s.execute(ctx, run.ID, opts, run.Modules)
	final, _ := s.Status(run.ID)
	return final, runErr
}

// Start launches a run detached from the caller's context and returns its
// id immediately; progress is visible through Status.
func (s *PipelineOrchestratorService) Start(ctx context.Context, opts RunOptions) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PipelineOrchestratorService.Start")
	defer span.End()

	run, err := s.register(opts)
	if err != nil {
		return "", err
	}
	s.logger.InfoContext(ctx, "pipeline run started in background",
		"run_id", run.ID,
		"mode", string(run.Mode),
		"modules", len(run.Modules),
		"dry_run", run.DryRun,
	)

	go func() {
		if err := s.execute(context.Background(), run.ID, opts, run.Modules); err != nil {
			s.logger.Warn("background pipeline run finished with error", "run_id", run.ID, "error", err)
		}
	}()

	return run.ID, nil
}

func (s *PipelineOrchestratorService) Status(runID string) (pipeline.Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[runID]
	if !ok {
		return pipeline.Run{}, false
	}

	return copyRun(r), true
}

// Recent returns retained runs, newest first.
func (s *PipelineOrchestratorService) Recent() []pipeline.Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]pipeline.Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		if r, ok := s.runs[s.order[i]]; ok {
			out = append(out, copyRun(r))
		}
	}

	return out
}

func (s *PipelineOrchestratorService) register(opts RunOptions) (pipeline.Run, error) {
	modules, mode, err := resolveModules(opts)
	if err != nil {
		return pipeline.Run{}, err
	}

	runID, err := id.RunID(s.idGen, string(mode), s.now())
	if err != nil {
		return pipeline.Run{}, fmt.Errorf("generate run id: %w", err)
	}

	run := &pipeline.Run{
		ID:        runID,
		Mode:      mode,
		Modules:   modules,
		DryRun:    opts.DryRun,
		Status:    pipeline.RunRunning,
		StartedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[runID] = run
	s.order = append(s.order, runID)
	for len(s.order) > s.cfg.RetainRuns {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}

	return copyRun(run), nil
}

func (s *PipelineOrchestratorService) execute(ctx context.Context, runID string, opts RunOptions, modules []pipeline.Module) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RunDeadline)
	defer cancel()

	var runErr error
	aborted := false

	for _, m := range modules {
		if aborted || ctx.Err() != nil {
			s.record(runID, func(r *pipeline.Run) {
				r.Stages = append(r.Stages, pipeline.StageOutcome{Module: m, Status: pipeline.StageSkipped})
			})
			continue
		}

		stageStart := s.now()
		res, err := s.runStage(ctx, m, opts)
		outcome := res.Outcome()
		outcome.Duration = s.now().Sub(stageStart)
		outcome.Status = pipeline.StageCompleted
		if err != nil {
			outcome.Status = pipeline.StageFailed
			outcome.Error = err.Error()
		}
		s.record(runID, func(r *pipeline.Run) {
			r.Stages = append(r.Stages, outcome)
		})

		switch {
		case err == nil:
			s.logger.InfoContext(ctx, "pipeline stage completed",
				"run_id", runID,
				"module", string(m),
				"ok", res.OKCount,
				"errors", res.ErrorCount,
				"duration", outcome.Duration.String(),
			)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			aborted = true
			runErr = err
			s.logger.WarnContext(ctx, "pipeline run cancelled mid-stage",
				"run_id", runID,
				"module", string(m),
				"error", err,
			)
		case m.Critical():
			aborted = true
			runErr = fmt.Errorf("%w: %s: %v", ErrCritical, m, err)
			s.logger.ErrorContext(ctx, "critical pipeline stage failed, aborting run",
				"run_id", runID,
				"module", string(m),
				"error", err,
			)
		default:
			s.logger.WarnContext(ctx, "pipeline stage failed, run continues",
				"run_id", runID,
				"module", string(m),
				"error", err,
			)
		}
	}

	cancelled := ctx.Err() != nil ||
		errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded)

	s.record(runID, func(r *pipeline.Run) {
		r.FinishedAt = s.now().UTC()
		r.Status = pipeline.RunCompleted
		for _, st := range r.Stages {
			if st.Status == pipeline.StageFailed {
				r.Status = pipeline.RunFailed
				break
			}
		}
		if cancelled {
			r.Status = pipeline.RunFailed
			r.Reason = pipeline.ReasonCancelled
		}
	})

	return runErr
}

func (s *PipelineOrchestratorService) runStage(ctx context.Context, m pipeline.Module, opts RunOptions) (StageResult, error) {
	switch m {
	case pipeline.ModuleCompetitions:
		return s.stages.Competitions.Run(ctx, CompetitionSyncOptions{DryRun: opts.DryRun})
	case pipeline.ModuleTeams:
		return s.stages.Teams.Run(ctx, TeamSyncOptions{
			CompetitionID: opts.CompetitionID,
			GradeID:       opts.GradeID,
			Force:         opts.Force,
			DryRun:        opts.DryRun,
		})
	case pipeline.ModuleGames:
		return s.stages.Games.Run(ctx, GameSyncOptions{
			CompetitionID: opts.CompetitionID,
			GradeID:       opts.GradeID,
			MentoneOnly:   opts.MentoneOnly,
			DryRun:        opts.DryRun,
		})
	case pipeline.ModuleResults:
		return s.stages.Results.Run(ctx, ResultSyncOptions{
			GameID:        opts.GameID,
			DaysBack:      opts.DaysBack,
			CompetitionID: opts.CompetitionID,
			Limit:         opts.LimitGames,
			Force:         opts.Force,
			DryRun:        opts.DryRun,
		})
	case pipeline.ModulePlayers:
		return s.stages.Players.Run(ctx, PlayerSyncOptions{
			TeamID:     opts.TeamID,
			LimitTeams: opts.LimitTeams,
			DryRun:     opts.DryRun,
		})
	case pipeline.ModuleLadder:
		return s.stages.Ladder.Run(ctx, LadderSyncOptions{
			CompetitionID: opts.CompetitionID,
			GradeID:       opts.GradeID,
			DryRun:        opts.DryRun,
		})
	case pipeline.ModuleVenues:
		return s.stages.Venues.Run(ctx, VenueSyncOptions{
			DaysBack: opts.DaysBack,
			Limit:    opts.LimitGames,
			DryRun:   opts.DryRun,
		})
	}

	return StageResult{Module: m}, fmt.Errorf("%w: unknown module %q", ErrInvalidInput, string(m))
}

func (s *PipelineOrchestratorService) record(runID string, mutate func(*pipeline.Run)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.runs[runID]; ok {
		mutate(r)
	}
}

// ModeCustom labels runs requested as an explicit module list.
const ModeCustom = pipeline.Mode("custom")

func resolveModules(opts RunOptions) ([]pipeline.Module, pipeline.Mode, error) {
	if len(opts.Modules) > 0 {
		for _, m := range opts.Modules {
			if !m.Valid() {
				return nil, "", fmt.Errorf("%w: unknown module %q", ErrInvalidInput, string(m))
			}
		}
		mode := opts.Mode
		if mode == "" {
			mode = ModeCustom
		}
		return pipeline.Order(opts.Modules), mode, nil
	}

	if opts.Mode == "" {
		return nil, "", fmt.Errorf("%w: a mode or an explicit module list is required", ErrInvalidInput)
	}
	modules := opts.Mode.Modules()
	if modules == nil {
		return nil, "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, string(opts.Mode))
	}

	return modules, opts.Mode, nil
}

func copyRun(r *pipeline.Run) pipeline.Run {
	out := *r
	out.Modules = append([]pipeline.Module(nil), r.Modules...)
	out.Stages = append([]pipeline.StageOutcome(nil), r.Stages...)

	return out
}
