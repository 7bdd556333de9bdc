package httpapi

import (
	"fmt"
	"net/http"

	"github.com/mentonehc/hvsync/internal/domain/pipeline"
	"github.com/mentonehc/hvsync/internal/usecase"
)

// The hooks run one refresh stage synchronously; discovery stages are too
// slow for a request cycle and stay on the async routes.
var hookModules = map[string]pipeline.Module{
	"results": pipeline.ModuleResults,
	"games":   pipeline.ModuleGames,
	"players": pipeline.ModulePlayers,
	"ladder":  pipeline.ModuleLadder,
}

func (h *Handler) RunHook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunHook")
	defer span.End()

	hook := r.PathValue("hook")
	module, ok := hookModules[hook]
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: unknown hook %q", usecase.ErrInvalidInput, hook))
		return
	}

	opts, err := parseRunQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	opts.Modules = []pipeline.Module{module}

	run, err := h.orchestrator.Run(ctx, opts)
	if err != nil {
		h.logger.WarnContext(ctx, "hook run failed", "hook", hook, "error", err)
		writeError(ctx, w, err)
		return
	}

	outcome := run.Stages[len(run.Stages)-1]
	dto := stageOutcomeDTO{
		Module:     string(outcome.Module),
		Status:     string(outcome.Status),
		OKCount:    outcome.OKCount,
		ErrorCount: outcome.ErrorCount,
		DurationMS: outcome.Duration.Milliseconds(),
		Error:      outcome.Error,
	}

	if outcome.Status == pipeline.StageFailed {
		writeJSON(ctx, w, http.StatusBadGateway, responseEnvelope{
			Status:  statusError,
			Message: outcome.Error,
			Data:    dto,
		})
		return
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}
