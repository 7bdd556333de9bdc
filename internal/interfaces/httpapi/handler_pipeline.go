package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/usecase"
)

// StartPipeline launches a run for a mode or a single stage named in the
// path and answers with the job id; progress is polled via the status route.
func (h *Handler) StartPipeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartPipeline")
	defer span.End()

	opts, err := parseRunQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	selector := r.PathValue("selector")
	if mode, modeErr := pipeline.ParseMode(selector); modeErr == nil {
		opts.Mode = mode
	} else if modules, moduleErr := pipeline.ParseModules([]string{selector}); moduleErr == nil {
		opts.Modules = modules
	} else {
		writeError(ctx, w, fmt.Errorf("%w: unknown pipeline selector %q", usecase.ErrInvalidInput, selector))
		return
	}

	jobID, err := h.orchestrator.Start(ctx, opts)
	if err != nil {
		h.logger.WarnContext(ctx, "start pipeline failed", "selector", selector, "error", err)
		writeError(ctx, w, err)
		return
	}

	run, _ := h.orchestrator.Status(jobID)
	writeSuccess(ctx, w, http.StatusAccepted, startedRunDTO{
		JobID:   jobID,
		Mode:    string(run.Mode),
		Modules: moduleNames(run.Modules),
		DryRun:  run.DryRun,
		Status:  string(run.Status),
	})
}

type runPipelineRequest struct {
	Modules    []string `json:"modules" validate:"required,min=1,dive,required"`
	DryRun     bool     `json:"dry_run"`
	Verbose    bool     `json:"verbose"`
	DaysBack   int      `json:"days_back" validate:"gte=0"`
	LimitGames int      `json:"limit_games" validate:"gte=0"`
}

// RunPipeline launches a run for an explicit module list from a JSON body.
func (h *Handler) RunPipeline(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPipeline")
	defer span.End()

	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req runPipelineRequest
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	modules, err := pipeline.ParseModules(req.Modules)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	jobID, err := h.orchestrator.Start(ctx, usecase.RunOptions{
		Modules:    modules,
		DryRun:     req.DryRun,
		DaysBack:   req.DaysBack,
		LimitGames: req.LimitGames,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run pipeline failed", "modules", req.Modules, "error", err)
		writeError(ctx, w, err)
		return
	}
	if req.Verbose {
		h.logger.InfoContext(ctx, "verbose pipeline run requested", "job_id", jobID, "modules", req.Modules)
	}

	run, _ := h.orchestrator.Status(jobID)
	writeSuccess(ctx, w, http.StatusAccepted, startedRunDTO{
		JobID:   jobID,
		Mode:    string(run.Mode),
		Modules: moduleNames(run.Modules),
		DryRun:  run.DryRun,
		Status:  string(run.Status),
	})
}

func (h *Handler) GetPipelineStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPipelineStatus")
	defer span.End()

	jobID := r.PathValue("jobID")
	run, ok := h.orchestrator.Status(jobID)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: job %q", usecase.ErrNotFound, jobID))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runToDTO(run))
}

func (h *Handler) ListPipelineJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPipelineJobs")
	defer span.End()

	runs := h.orchestrator.Recent()
	items := make([]runDTO, 0, len(runs))
	for _, run := range runs {
		items = append(items, runToDTO(run))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type endpointDTO struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

func (h *Handler) ListPipelineEndpoints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPipelineEndpoints")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, []endpointDTO{
		{Method: http.MethodGet, Path: "/health", Description: "service health"},
		{Method: http.MethodPost, Path: "/pipeline/{mode}", Description: "start a run: setup, fixtures, daily, weekly or full"},
		{Method: http.MethodPost, Path: "/pipeline/{stage}", Description: "start a single stage: competitions, teams, games, results, players, ladder or venues"},
		{Method: http.MethodPost, Path: "/run-pipeline", Description: "start a run for an explicit module list"},
		{Method: http.MethodGet, Path: "/pipeline/status/{job_id}", Description: "one run's progress"},
		{Method: http.MethodGet, Path: "/pipeline/jobs", Description: "recent runs, newest first"},
		{Method: http.MethodPost, Path: "/hooks/{hook}", Description: "run one stage synchronously: results, games, players or ladder"},
		{Method: http.MethodGet, Path: "/ladder", Description: "home club standing for comp_id and fixture_id"},
	})
}
