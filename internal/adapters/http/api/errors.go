package api

import (
	"errors"
	"net/http"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/mq/queue"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/adapters/source"
	service "github.com/SquizAI/humanGLue-brain-sub005/internal/app"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
	"github.com/SquizAI/humanGLue-brain-sub005/internal/render"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// errorCode maps a domain or adapter error to an HTTP status and a stable
// machine-readable code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrBackpressure), errors.Is(err, service.ErrBackpressure), errors.Is(err, queue.ErrFull):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, model.ErrInvalidScoreRange):
		return http.StatusBadRequest, "invalid_score_range"
	case errors.Is(err, model.ErrInvalidEvidence):
		return http.StatusBadRequest, "invalid_evidence"
	case errors.Is(err, model.ErrUnknownDimension):
		return http.StatusBadRequest, "unknown_dimension"
	case errors.Is(err, render.ErrUnknownFormat):
		return http.StatusBadRequest, "unknown_format"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusInternalServerError, "configuration_error"
	case errors.Is(err, service.ErrSourceDisabled):
		return http.StatusNotImplemented, "source_disabled"
	case errors.Is(err, source.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, queue.ErrClosed):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
