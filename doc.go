// Package refptr provides reference-counted shared ownership for Go values.
//
// Go reclaims memory on its own, but many values own something the garbage
// collector does not: a socket, a compiled module, a pooled buffer, a file.
// Such values need a deterministic point at which they are closed. The
// packages here give that point a name: an object is destroyed exactly once,
// when the last strong handle to it is released.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	refptr/
//	├── counter/         Atomic reference counter
//	├── intrusive/       Handles for objects that embed their own counter
//	├── registry/        Address-keyed counters for arbitrary objects
//	├── shared/          Strong handles counted in a registry
//	├── weakref/         Weak handles for shared.Ptr
//	├── handles/         Integer handle table owning strong references
//	├── modcache/        Compiled wasm modules shared through handles
//	├── metrics/         Prometheus collector for registries
//	├── errors/          Structured error types for debugging
//	└── cmd/refview/     Demo and interactive inspector
//
// # Quick Start
//
// Intrusive, for types you control:
//
//	type Session struct {
//	    intrusive.Base
//	    id int
//	}
//
//	p := intrusive.New(&Session{id: 1})
//	q := p.Clone()
//	p.Reset()
//	q.Reset() // Session.Drop runs here, if defined
//
// Non-intrusive, for any type:
//
//	p := shared.New(registry.Default(), &Conn{})
//	w := weakref.From(&p)
//	if q := w.Lock(); q.Valid() {
//	    defer q.Reset()
//	}
//
// # Thread Safety
//
// Counters, registries and handle tables are safe for concurrent use.
// A single handle value is NOT: give each goroutine its own handle with
// Clone, never share one handle between goroutines without synchronization.
//
// # Debug Builds
//
// Building with -tags refdebug turns on internal assertions, such as
// dereferencing a null handle.
package refptr
