package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SquizAI/humanGLue-brain-sub005/pkg/metrics"
)

// StatsProvider reports queue, worker and intake counters for GET /stats.
type StatsProvider interface {
	GetStats() map[string]any
}

// OpsHandler serves the operational endpoints: /healthz and /stats.
type OpsHandler struct {
	metrics http.Handler
	stats   StatsProvider
}

// NewOpsHandler binds the Prometheus exposition of the custom registry and
// the service statistics.
func NewOpsHandler(stats StatsProvider) *OpsHandler {
	return &OpsHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
		stats:   stats,
	}
}

// HandleHealth answers GET /healthz with the metrics exposition. A process
// that can render it is healthy.
func (h *OpsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// HandleStats answers GET /stats.
func (h *OpsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.GetStats())
}
