package shared

import (
	"github.com/wippyai/refptr/errors"
	"github.com/wippyai/refptr/registry"
)

// Make allocates a zero T, runs init on it if non-nil and returns the only
// handle to it, counted in reg.
func Make[T any](reg *registry.Registry, init func(*T)) Ptr[T] {
	raw := new(T)
	if init != nil {
		init(raw)
	}
	return New(reg, raw)
}

// MakeFunc wraps the object returned by ctor in a single handle counted in
// reg. A ctor error is returned wrapped and no entry is created.
func MakeFunc[T any](reg *registry.Registry, ctor func() (*T, error)) (Ptr[T], error) {
	raw, err := ctor()
	if err != nil {
		return Ptr[T]{reg: reg}, errors.AllocationFailed(typeName[T](), err)
	}
	if raw == nil {
		return Ptr[T]{reg: reg}, errors.NilPointer(errors.PhaseAlloc, typeName[T]())
	}
	return New(reg, raw), nil
}
