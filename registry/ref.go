package registry

import (
	"unsafe"
)

// Ref is one credited reference to a registry entry. It is the only
// capability strong and weak handle packages need from a Registry.
//
// Every credited Ref must be released exactly once. Copying a Ref value
// does not credit the entry; use Clone.
type Ref struct {
	r *Registry
	e *entry
}

// Valid reports whether ref carries a credit.
func (ref Ref) Valid() bool {
	return ref.e != nil
}

// Addr returns the referenced address, or nil.
func (ref Ref) Addr() unsafe.Pointer {
	if ref.e == nil {
		return nil
	}
	return ref.e.addr
}

// Registry returns the owning registry, or nil.
func (ref Ref) Registry() *Registry {
	return ref.r
}

// Clone credits the entry once more and returns the new reference.
// It does not lock: the caller's own credit keeps the entry alive.
func (ref Ref) Clone() Ref {
	if ref.e == nil {
		return Ref{}
	}
	ref.e.refs.Increment()
	return ref
}

// Release drops the credit. It reports whether this was the last
// reference, in which case the destructor has already run.
func (ref Ref) Release() bool {
	if ref.e == nil {
		return false
	}
	return ref.r.release(ref.e)
}

// UseCount returns the entry's current count. Advisory only.
func (ref Ref) UseCount() uint32 {
	if ref.e == nil {
		return 0
	}
	return ref.e.refs.Load()
}
