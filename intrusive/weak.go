package intrusive

import (
	"weak"
)

// Weak observes an intrusively counted object without owning it.
// The zero value is an expired handle.
//
// Weak holds a weak.Pointer, so it keeps neither the count nor the
// memory of the object alive.
type Weak[T any, PT interface {
	*T
	WeakObject
}] struct {
	ref weak.Pointer[T]
}

// NewWeak returns a weak handle observing p's target.
// A null p yields an expired handle.
func NewWeak[T any, PT interface {
	*T
	WeakObject
}](p *Ptr[T, PT]) Weak[T, PT] {
	if p.ref == nil {
		return Weak[T, PT]{}
	}
	return Weak[T, PT]{ref: weak.Make((*T)(p.ref))}
}

// Expired reports whether the target has been released for the last time.
func (w Weak[T, PT]) Expired() bool {
	v := w.ref.Value()
	if v == nil {
		return true
	}
	return PT(v).RefCount() == 0
}

// Lock returns a strong handle to the target, or a null handle if the
// target is already gone. The liveness check and the credit are a single
// atomic step.
func (w Weak[T, PT]) Lock() Ptr[T, PT] {
	v := w.ref.Value()
	if v == nil {
		return Ptr[T, PT]{}
	}
	ref := PT(v)
	if !ref.TryAddRef() {
		return Ptr[T, PT]{}
	}
	return Ptr[T, PT]{ref: ref}
}

// UseCount returns the number of strong references, 0 once expired.
func (w Weak[T, PT]) UseCount() uint32 {
	v := w.ref.Value()
	if v == nil {
		return 0
	}
	return PT(v).RefCount()
}

// Equal reports whether w and other observe the same object.
func (w Weak[T, PT]) Equal(other Weak[T, PT]) bool {
	return w.ref == other.ref
}
