package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// OrganizationHandler serves subject intake: profile, evidence, quotes,
// perceptions and upstream sync.
type OrganizationHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewOrganizationHandler creates a new organization handler.
func NewOrganizationHandler(deps Dependencies, log logger.Logger) *OrganizationHandler {
	return &OrganizationHandler{deps: deps, logger: log}
}

// profileRequest mirrors the OpenAPI schema for PUT /organizations/{id}.
type profileRequest struct {
	Name     string            `json:"name"`
	Kind     model.SubjectKind `json:"kind"`
	Industry string            `json:"industry"`
	SizeBand string            `json:"sizeBand"`
}

type quotesResponse struct {
	Accepted int `json:"accepted"`
}

// HandlePutProfile handles PUT /organizations/{id}.
func (h *OrganizationHandler) HandlePutProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_profile"
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	subj, err := h.deps.PutProfile(r.Context(), model.Subject{
		ID:       chi.URLParam(r, "id"),
		Name:     req.Name,
		Kind:     req.Kind,
		Industry: req.Industry,
		SizeBand: req.SizeBand,
	})
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, subj)
}

// HandleGetProfile handles GET /organizations/{id}.
func (h *OrganizationHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	subj, err := h.deps.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, "api.get_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, subj)
}

// HandlePostEvidence handles POST /organizations/{id}/evidence with a JSON
// array of evidence items.
func (h *OrganizationHandler) HandlePostEvidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evidence"
	var items []model.EvidenceItem
	if err := decodeJSON(w, r, &items); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	res, err := h.deps.AddEvidence(r.Context(), chi.URLParam(r, "id"), items)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandlePostQuotes handles POST /organizations/{id}/quotes with a JSON array
// of interview quotes.
func (h *OrganizationHandler) HandlePostQuotes(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_quotes"
	var quotes []model.Quote
	if err := decodeJSON(w, r, &quotes); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	n, err := h.deps.AddQuotes(r.Context(), chi.URLParam(r, "id"), quotes)
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, quotesResponse{Accepted: n})
}

// HandlePutPerceptions handles PUT /organizations/{id}/perceptions with a
// {dimension: score} object.
func (h *OrganizationHandler) HandlePutPerceptions(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_perceptions"
	var raw map[string]float64
	if err := decodeJSON(w, r, &raw); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	perceived := make(map[model.DimensionID]float64, len(raw))
	for k, v := range raw {
		d, err := model.ParseDimension(k)
		if err != nil {
			writeServiceError(r.Context(), h.logger, w, op, fmt.Errorf("%w: %w", ErrBadRequest, err))
			return
		}
		perceived[d] = v
	}
	if err := h.deps.SetPerceptions(r.Context(), chi.URLParam(r, "id"), perceived); err != nil {
		writeServiceError(r.Context(), h.logger, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, raw)
}

// HandleSync handles POST /organizations/{id}/sync.
func (h *OrganizationHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Sync(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(r.Context(), h.logger, w, "api.sync", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
