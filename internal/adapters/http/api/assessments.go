package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/render"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// AssessmentHandler serves report builds, job status and report export.
type AssessmentHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAssessmentHandler creates a new assessment handler.
func NewAssessmentHandler(deps Dependencies, log logger.Logger) *AssessmentHandler {
	return &AssessmentHandler{deps: deps, logger: log}
}

type jobResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

// HandlePostAssessment handles POST /organizations/{id}/assessments. By
// default the build is queued and 202 is returned with the job id;
// ?sync=true builds inline and returns the report.
func (h *AssessmentHandler) HandlePostAssessment(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_assessment"
	id := chi.URLParam(r, "id")

	inline := false
	if v := r.URL.Query().Get("sync"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: sync must be a boolean", ErrBadRequest))
			return
		}
		inline = b
	}

	if inline {
		rep, err := h.deps.Assess(r.Context(), id)
		if err != nil {
			writeServiceError(r.Context(), h.logger, w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, rep)
		return
	}

	st, err := h.deps.RequestAssessment(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+st.ID)
	writeJSON(w, http.StatusAccepted, jobResponse{JobID: st.ID, Status: string(st.State)})
}

// HandleGetJob handles GET /jobs/{id}.
func (h *AssessmentHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	st, err := h.deps.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, "api.get_job", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleGetReport handles GET /organizations/{id}/report?format=F and writes
// the latest stored report in the requested format.
func (h *AssessmentHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	format, err := render.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	rep, err := h.deps.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format == render.FormatXLSX {
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", rep.Subject.ID+"-"+rep.ID+"."+format.Extension()))
	}
	if err := render.Render(w, rep, format); err != nil {
		// Headers are gone; the client sees a truncated body.
		h.logger.Error(r.Context(), "render report failed",
			logger.String("report_id", rep.ID), logger.String("format", string(format)), logger.Error(err))
	}
}
