package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace replaces the "maturity" metric prefix.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithLatencyBuckets sets the millisecond buckets shared by the build,
// repository, source and HTTP latency histograms.
func WithLatencyBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithInstance labels every series with instance=name, so several
// assessment processes can share one scrape target.
func WithInstance(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.constLabels = prometheus.Labels{"instance": name}
		}
	}
}

// WithMetricsEnabled enables or disables recording. A disabled manager
// still registers its collectors but drops every Record call.
func WithMetricsEnabled(enabled bool) Option {
	return func(m *Manager) {
		m.enabled = enabled
	}
}

// WithPrometheusRegistry registers the collectors somewhere other than the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}
