package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// BenchmarkHandler serves benchmark distribution upserts.
type BenchmarkHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewBenchmarkHandler creates a new benchmark handler.
func NewBenchmarkHandler(deps Dependencies, log logger.Logger) *BenchmarkHandler {
	return &BenchmarkHandler{deps: deps, logger: log}
}

type benchmarkRequest struct {
	Mean        *float64                 `json:"mean"`
	Percentiles []model.PercentileAnchor `json:"percentiles"`
}

// HandlePutBenchmark handles PUT /benchmarks/{industry}/{sizeBand}. A
// malformed distribution is a client error here, not a configuration fault.
func (h *BenchmarkHandler) HandlePutBenchmark(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_benchmark"
	var req benchmarkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	dist := model.Distribution{
		Industry:    chi.URLParam(r, "industry"),
		SizeBand:    chi.URLParam(r, "sizeBand"),
		Mean:        req.Mean,
		Percentiles: req.Percentiles,
	}
	if err := h.deps.PutBenchmark(r.Context(), dist); err != nil {
		if errors.Is(err, model.ErrConfiguration) {
			writeError(w, http.StatusBadRequest, "invalid_benchmark", err)
			return
		}
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}
