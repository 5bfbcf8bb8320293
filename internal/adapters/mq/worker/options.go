package worker

import (
	"github.com/SquizAI/humanGLue-brain-sub005/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithTracker reports job transitions to t.
func WithTracker(t Tracker) Option {
	return func(w *InMemoryWorker) {
		if t != nil {
			w.tracker = t
		}
	}
}
