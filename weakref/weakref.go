// Package weakref implements weak observers for registry-counted handles
// from package shared.
//
// A weak handle records its target through weak.Pointer, so it neither
// credits the registry entry nor keeps the object's memory reachable.
// Upgrading is a single atomic registry operation:
//
//	w := weakref.From(&strong)
//	if p := w.Lock(); p.Valid() {
//	    defer p.Reset()
//	    use(p.Get())
//	}
//
// Checking Expired and then wrapping the raw pointer separately is racy
// against a concurrent final release; always use Lock.
package weakref

import (
	"fmt"
	"reflect"
	"unsafe"
	"weak"

	"github.com/wippyai/refptr/registry"
	"github.com/wippyai/refptr/shared"
)

// Ptr is a weak handle. The zero value is expired.
type Ptr[T any] struct {
	ptr weak.Pointer[T]
	reg *registry.Registry
}

// From returns a weak handle observing p's target. A null p yields an
// expired handle.
func From[T any](p *shared.Ptr[T]) Ptr[T] {
	raw := p.Get()
	if raw == nil {
		return Ptr[T]{reg: p.Registry()}
	}
	return Ptr[T]{ptr: weak.Make(raw), reg: p.Registry()}
}

// Expired reports whether the target no longer has any strong handle.
// The answer may be out of date as soon as it is returned.
func (w Ptr[T]) Expired() bool {
	raw := w.ptr.Value()
	if raw == nil || w.reg == nil {
		return true
	}
	return !w.reg.Alive(unsafe.Pointer(raw))
}

// Lock returns a new strong handle to the target, or a null handle if the
// target is gone. There is no third outcome.
func (w Ptr[T]) Lock() shared.Ptr[T] {
	raw := w.ptr.Value()
	if raw == nil || w.reg == nil {
		return shared.New[T](w.reg, nil)
	}
	ref, ok := w.reg.Upgrade(unsafe.Pointer(raw))
	if !ok {
		return shared.New[T](w.reg, nil)
	}
	return shared.Adopt(raw, ref)
}

// UseCount returns the number of strong handles to the target, 0 once
// expired. Advisory only.
func (w Ptr[T]) UseCount() uint32 {
	raw := w.ptr.Value()
	if raw == nil || w.reg == nil {
		return 0
	}
	return w.reg.UseCount(unsafe.Pointer(raw))
}

// Reset stops observing the target.
func (w *Ptr[T]) Reset() {
	w.ptr = weak.Pointer[T]{}
}

// Equal reports whether w and other observe the same object.
func (w Ptr[T]) Equal(other Ptr[T]) bool {
	return w.ptr == other.ptr
}

// String implements fmt.Stringer.
func (w Ptr[T]) String() string {
	state := "live"
	if w.Expired() {
		state = "expired"
	}
	return fmt.Sprintf("weakref.Ptr[%s](%s)", reflect.TypeFor[*T](), state)
}
