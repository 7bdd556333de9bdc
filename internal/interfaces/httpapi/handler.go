package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/platform/logging"
	"github.com/mentonehc/hvsync/internal/usecase"
)

type Handler struct {
	orchestrator *usecase.PipelineOrchestratorService
	ladderQuery  *usecase.LadderQueryService
	logger       *logging.Logger
	validator    *validator.Validate
}

func NewHandler(
	orchestrator *usecase.PipelineOrchestratorService,
	ladderQuery *usecase.LadderQueryService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		orchestrator: orchestrator,
		ladderQuery:  ladderQuery,
		logger:       logger,
		validator:    validator.New(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Health")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type stageOutcomeDTO struct {
	Module     string `json:"module"`
	Status     string `json:"status"`
	OKCount    int    `json:"ok_count"`
	ErrorCount int    `json:"error_count"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

type runDTO struct {
	JobID      string            `json:"job_id"`
	Mode       string            `json:"mode"`
	Modules    []string          `json:"modules"`
	DryRun     bool              `json:"dry_run"`
	Status     string            `json:"status"`
	Reason     string            `json:"reason,omitempty"`
	StartedAt  string            `json:"started_at"`
	FinishedAt string            `json:"finished_at,omitempty"`
	Stages     []stageOutcomeDTO `json:"stages"`
}

type startedRunDTO struct {
	JobID   string   `json:"job_id"`
	Mode    string   `json:"mode"`
	Modules []string `json:"modules"`
	DryRun  bool     `json:"dry_run"`
	Status  string   `json:"status"`
}

func runToDTO(run pipeline.Run) runDTO {
	stages := make([]stageOutcomeDTO, 0, len(run.Stages))
	for _, st := range run.Stages {
		stages = append(stages, stageOutcomeDTO{
			Module:     string(st.Module),
			Status:     string(st.Status),
			OKCount:    st.OKCount,
			ErrorCount: st.ErrorCount,
			DurationMS: st.Duration.Milliseconds(),
			Error:      st.Error,
		})
	}

	return runDTO{
		JobID:      run.ID,
		Mode:       string(run.Mode),
		Modules:    moduleNames(run.Modules),
		DryRun:     run.DryRun,
		Status:     string(run.Status),
		Reason:     run.Reason,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		FinishedAt: formatOptionalTime(run.FinishedAt),
		Stages:     stages,
	}
}

func moduleNames(modules []pipeline.Module) []string {
	names := make([]string, 0, len(modules))
	for _, m := range modules {
		names = append(names, string(m))
	}
	return names
}

func formatOptionalTime(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format(time.RFC3339)
}

func parseBoolQuery(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be a boolean, got %q", usecase.ErrInvalidInput, name, raw)
	}
	return v, nil
}

func parseIntQuery(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", usecase.ErrInvalidInput, name, raw)
	}
	return v, nil
}

// parseRunQuery reads the shared trigger query parameters. The comp_id and
// fixture_id names mirror the source site's URLs.
func parseRunQuery(r *http.Request) (usecase.RunOptions, error) {
	var opts usecase.RunOptions
	var err error

	query := r.URL.Query()
	opts.CompetitionID = strings.TrimSpace(query.Get("comp_id"))
	opts.GradeID = strings.TrimSpace(query.Get("fixture_id"))
	opts.GameID = strings.TrimSpace(query.Get("game_id"))
	opts.TeamID = strings.TrimSpace(query.Get("team_id"))

	if opts.DaysBack, err = parseIntQuery(r, "days_back"); err != nil {
		return usecase.RunOptions{}, err
	}
	if opts.LimitGames, err = parseIntQuery(r, "limit_games"); err != nil {
		return usecase.RunOptions{}, err
	}
	if opts.LimitTeams, err = parseIntQuery(r, "limit_teams"); err != nil {
		return usecase.RunOptions{}, err
	}
	if opts.DryRun, err = parseBoolQuery(r, "dry_run"); err != nil {
		return usecase.RunOptions{}, err
	}
	if opts.Force, err = parseBoolQuery(r, "force_update"); err != nil {
		return usecase.RunOptions{}, err
	}
	if opts.MentoneOnly, err = parseBoolQuery(r, "mentone_only"); err != nil {
		return usecase.RunOptions{}, err
	}

	return opts, nil
}
