package intrusive

import (
	"github.com/wippyai/refptr/counter"
)

// Object is implemented by types that carry their own reference count.
type Object interface {
	// AddRef adds one reference.
	AddRef()

	// Release removes one reference and reports whether it was the last.
	Release() bool
}

// WeakObject is an Object that can be observed by Weak handles.
type WeakObject interface {
	Object

	// TryAddRef adds one reference unless the count already reached zero.
	TryAddRef() bool

	// RefCount returns the current count.
	RefCount() uint32
}

// Diagnostics is optionally implemented by objects that expose their count.
// The value is advisory once other goroutines hold references.
type Diagnostics interface {
	RefCount() uint32
}

// Dropper is optionally implemented by objects that need cleanup when the
// last reference is released.
type Dropper interface {
	Drop()
}

// Base is an embeddable reference count satisfying WeakObject and
// Diagnostics. The zero value holds no references.
type Base struct {
	refs counter.Counter
}

// AddRef implements Object.
func (b *Base) AddRef() {
	b.refs.Increment()
}

// Release implements Object.
func (b *Base) Release() bool {
	return b.refs.DecrementAndCheck()
}

// TryAddRef implements WeakObject.
func (b *Base) TryAddRef() bool {
	return b.refs.IncrementIfPositive()
}

// RefCount implements Diagnostics.
func (b *Base) RefCount() uint32 {
	return b.refs.Load()
}
