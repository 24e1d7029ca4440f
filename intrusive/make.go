package intrusive

import (
	"github.com/wippyai/refptr/errors"
)

// Make allocates a zero T, runs init on it if non-nil and returns the only
// handle to it.
func Make[T any, PT interface {
	*T
	Object
}](init func(PT)) Ptr[T, PT] {
	ref := PT(new(T))
	if init != nil {
		init(ref)
	}
	ref.AddRef()
	return Ptr[T, PT]{ref: ref}
}

// MakeFunc wraps the object returned by ctor in a single handle.
// A ctor error is returned wrapped and no handle is produced.
func MakeFunc[T any, PT interface {
	*T
	Object
}](ctor func() (PT, error)) (Ptr[T, PT], error) {
	ref, err := ctor()
	if err != nil {
		return Ptr[T, PT]{}, errors.AllocationFailed(typeName[T](), err)
	}
	if ref == nil {
		return Ptr[T, PT]{}, errors.NilPointer(errors.PhaseAlloc, typeName[T]())
	}
	ref.AddRef()
	return Ptr[T, PT]{ref: ref}, nil
}
