package registry

import "sync"

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide registry. It is created on first use
// and never closed.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New(WithName("default"))
	})
	return defaultRegistry
}
