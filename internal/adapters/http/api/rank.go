package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// RankDependencies defines the interface for rank operations.
type RankDependencies interface {
	Rank(ctx context.Context, subjectID string) (Entry, error)
}

// RankHandler handles rank requests.
type RankHandler struct {
	deps   RankDependencies
	logger logger.Logger
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies, log logger.Logger) *RankHandler {
	return &RankHandler{deps: deps, logger: log}
}

// HandleGetRank handles GET /rank/{id} requests.
func (h *RankHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	entry, err := h.deps.Rank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, "api.get_rank", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
