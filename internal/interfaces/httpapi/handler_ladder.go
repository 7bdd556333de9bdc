package httpapi

import (
	"net/http"
	"strings"
)

func (h *Handler) GetLadderStanding(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLadderStanding")
	defer span.End()

	query := r.URL.Query()
	compID := strings.TrimSpace(query.Get("comp_id"))
	fixtureID := strings.TrimSpace(query.Get("fixture_id"))

	standing, err := h.ladderQuery.Standing(ctx, compID, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "ladder standing lookup failed",
			"comp_id", compID,
			"fixture_id", fixtureID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standing)
}
