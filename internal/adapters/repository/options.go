package repository

import "time"

type options struct {
	metricsUpdateInterval time.Duration
}

func defaultOptions() options {
	return options{metricsUpdateInterval: 5 * time.Second}
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(o *options) {
		if interval > 0 {
			o.metricsUpdateInterval = interval
		}
	}
}
