package shared

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/wippyai/refptr/errors"
	"github.com/wippyai/refptr/internal/debug"
	"github.com/wippyai/refptr/registry"
)

// Dropper is optionally implemented by shared objects that need cleanup
// when the last strong handle is released.
type Dropper interface {
	Drop()
}

// Ptr is a strong handle counted in a registry. The zero value is a null
// handle bound to registry.Default.
//
// A Ptr is not safe for concurrent use; the object it targets is. Ptr
// values must not be copied with the assignment operator; use Clone or
// Move.
type Ptr[T any] struct {
	_   noCopy
	ptr *T
	ref registry.Ref
	reg *registry.Registry
}

// New returns a handle to raw counted in reg, creating the entry if raw
// has none. A nil raw yields a null handle bound to reg. When the last
// handle goes away, raw's Drop method runs if it implements Dropper.
func New[T any](reg *registry.Registry, raw *T) Ptr[T] {
	return NewFunc(reg, raw, dropObject[T])
}

// NewFunc is like New but runs deleter instead of Drop on destruction.
// The deleter is only recorded if this call creates the entry.
func NewFunc[T any](reg *registry.Registry, raw *T, deleter func(*T)) Ptr[T] {
	if reg == nil {
		reg = registry.Default()
	}
	if raw == nil {
		return Ptr[T]{reg: reg}
	}
	return Ptr[T]{ptr: raw, ref: acquire(reg, raw, deleter), reg: reg}
}

// Adopt wraps an already credited reference to raw without crediting it
// again. It is the bridge used by weak handles after a successful
// registry.Registry.Upgrade.
func Adopt[T any](raw *T, ref registry.Ref) Ptr[T] {
	if !ref.Valid() {
		return Ptr[T]{reg: ref.Registry()}
	}
	if ref.Addr() != unsafe.Pointer(raw) {
		panic(errors.New(errors.PhaseUpgrade, errors.KindInvalidInput).
			Type(typeName[T]()).
			Addr(uintptr(unsafe.Pointer(raw))).
			Detail("reference targets %#x", uintptr(ref.Addr())).
			Build())
	}
	return Ptr[T]{ptr: raw, ref: ref, reg: ref.Registry()}
}

// Clone returns a new handle to the same target, crediting it once.
func (p *Ptr[T]) Clone() Ptr[T] {
	return Ptr[T]{ptr: p.ptr, ref: p.ref.Clone(), reg: p.reg}
}

// Move transfers the reference to a new handle and leaves p null.
func (p *Ptr[T]) Move() Ptr[T] {
	ptr, ref := p.ptr, p.ref
	p.ptr, p.ref = nil, registry.Ref{}
	return Ptr[T]{ptr: ptr, ref: ref, reg: p.reg}
}

// Assign makes p target whatever other targets, crediting the new target
// before the old one is released. Assigning a handle to itself, or to a
// handle with the same target, changes nothing.
func (p *Ptr[T]) Assign(other *Ptr[T]) {
	if p == other || (p.ptr == other.ptr && p.ref.Registry() == other.ref.Registry()) {
		return
	}
	ref := other.ref.Clone()
	p.replace(other.ptr, ref, other.reg)
}

// MoveAssign takes over other's reference and leaves other null.
func (p *Ptr[T]) MoveAssign(other *Ptr[T]) {
	if p == other {
		return
	}
	ptr, ref := other.ptr, other.ref
	other.ptr, other.ref = nil, registry.Ref{}
	p.replace(ptr, ref, other.reg)
}

// AssignRaw makes p target raw in p's registry, or become null when raw is
// nil. Assigning the current target is a no-op.
func (p *Ptr[T]) AssignRaw(raw *T) {
	if raw == p.ptr {
		return
	}
	var ref registry.Ref
	if raw != nil {
		ref = acquire(p.registry(), raw, dropObject[T])
	}
	p.replace(raw, ref, p.reg)
}

// Reset releases the reference and leaves p null.
func (p *Ptr[T]) Reset() {
	if p.ptr == nil {
		return
	}
	old := p.ref
	p.ptr, p.ref = nil, registry.Ref{}
	old.Release()
}

// Swap exchanges the targets of p and other without counter traffic.
func (p *Ptr[T]) Swap(other *Ptr[T]) {
	p.ptr, other.ptr = other.ptr, p.ptr
	p.ref, other.ref = other.ref, p.ref
	p.reg, other.reg = other.reg, p.reg
}

// Get returns the target, or nil for a null handle.
func (p *Ptr[T]) Get() *T {
	return p.ptr
}

// Deref returns the target. The handle must be live: on a null handle the
// result is nil and using it panics. Builds with the refdebug tag assert.
func (p *Ptr[T]) Deref() *T {
	debug.Assert(p.ptr != nil, "dereference of null %s", typeName[T]())
	return p.ptr
}

// Valid reports whether p holds a reference.
func (p *Ptr[T]) Valid() bool {
	return p.ptr != nil
}

// Equal reports whether p and other target the same address.
func (p *Ptr[T]) Equal(other *Ptr[T]) bool {
	return p.ptr == other.ptr
}

// UseCount returns the number of strong handles to the target, 0 for a
// null handle. Advisory only.
func (p *Ptr[T]) UseCount() uint32 {
	return p.ref.UseCount()
}

// Unique reports whether p is the only strong handle to its target.
// Advisory only.
func (p *Ptr[T]) Unique() bool {
	return p.ptr != nil && p.ref.UseCount() == 1
}

// Registry returns the registry p counts in.
func (p *Ptr[T]) Registry() *registry.Registry {
	return p.registry()
}

// String implements fmt.Stringer.
func (p *Ptr[T]) String() string {
	if p.ptr == nil {
		return fmt.Sprintf("shared.Ptr[%s](nil)", typeName[T]())
	}
	return fmt.Sprintf("shared.Ptr[%s](%p)", typeName[T](), p.ptr)
}

func (p *Ptr[T]) registry() *registry.Registry {
	if p.reg == nil {
		return registry.Default()
	}
	return p.reg
}

func (p *Ptr[T]) replace(ptr *T, ref registry.Ref, reg *registry.Registry) {
	old := p.ref
	p.ptr, p.ref = ptr, ref
	if reg != nil {
		p.reg = reg
	}
	old.Release()
}

func acquire[T any](reg *registry.Registry, raw *T, deleter func(*T)) registry.Ref {
	var destroy func()
	if deleter != nil {
		destroy = func() { deleter(raw) }
	}
	return reg.Acquire(unsafe.Pointer(raw), reflect.TypeFor[*T](), destroy)
}

func dropObject[T any](raw *T) {
	if d, ok := any(raw).(Dropper); ok {
		d.Drop()
	}
}

func typeName[T any]() string {
	return reflect.TypeFor[*T]().String()
}

// noCopy trips go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
