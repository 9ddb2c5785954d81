package worker

import (
	"github.com/okian/taskflow/pkg/logger"
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

// WithPicker enables automatic assignment for requests without a member.
func WithPicker(p Picker) Option {
	return func(w *InMemoryWorker) {
		if p != nil {
			w.picker = p
		}
	}
}

// WithResultHandler registers a callback invoked after every request.
func WithResultHandler(fn ResultHandler) Option {
	return func(w *InMemoryWorker) {
		if fn != nil {
			w.onResult = fn
		}
	}
}
