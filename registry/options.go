package registry

import (
	"go.uber.org/zap"
)

// Option configures a Registry.
type Option func(*Registry)

// WithName labels the registry in logs, errors and metrics.
func WithName(name string) Option {
	return func(r *Registry) {
		r.name = name
	}
}

// WithLogger sets the registry's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithObserver subscribes o from the start.
func WithObserver(o Observer) Option {
	return func(r *Registry) {
		r.subscribe(o)
	}
}
