package intrusive

import (
	"fmt"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/refptr/internal/debug"
)

// Ptr is a strong handle to an intrusively counted object.
// The zero value is a null handle.
//
// A Ptr is not safe for concurrent use; the object it targets is.
type Ptr[T any, PT interface {
	*T
	Object
}] struct {
	_   noCopy
	ref PT
}

// New returns a handle to ref, crediting its count.
// A nil ref yields a null handle and touches no counter.
func New[T any, PT interface {
	*T
	Object
}](ref PT) Ptr[T, PT] {
	if ref != nil {
		ref.AddRef()
	}
	return Ptr[T, PT]{ref: ref}
}

// Clone returns a new handle to the same target, crediting it once.
func (p *Ptr[T, PT]) Clone() Ptr[T, PT] {
	if p.ref != nil {
		p.ref.AddRef()
	}
	return Ptr[T, PT]{ref: p.ref}
}

// Move transfers the reference to a new handle and leaves p null.
// No counter traffic happens.
func (p *Ptr[T, PT]) Move() Ptr[T, PT] {
	ref := p.ref
	p.ref = nil
	return Ptr[T, PT]{ref: ref}
}

// Assign makes p target whatever other targets.
// The new target is credited before the old one is released.
func (p *Ptr[T, PT]) Assign(other *Ptr[T, PT]) {
	if p == other {
		return
	}
	p.AssignRaw(other.ref)
}

// MoveAssign takes over other's reference and leaves other null.
func (p *Ptr[T, PT]) MoveAssign(other *Ptr[T, PT]) {
	if p == other {
		return
	}
	old := p.ref
	p.ref = other.ref
	other.ref = nil
	release[T, PT](old)
}

// AssignRaw makes p target ref, or become null when ref is nil.
// Assigning the current target is a no-op.
func (p *Ptr[T, PT]) AssignRaw(ref PT) {
	if ref == p.ref {
		return
	}
	if ref != nil {
		ref.AddRef()
	}
	old := p.ref
	p.ref = ref
	release[T, PT](old)
}

// Reset releases the reference and leaves p null.
func (p *Ptr[T, PT]) Reset() {
	old := p.ref
	p.ref = nil
	release[T, PT](old)
}

// Swap exchanges the targets of p and other without counter traffic.
func (p *Ptr[T, PT]) Swap(other *Ptr[T, PT]) {
	p.ref, other.ref = other.ref, p.ref
}

// Get returns the target, or nil for a null handle.
func (p *Ptr[T, PT]) Get() PT {
	return p.ref
}

// Deref returns the target. The handle must be live: on a null handle the
// result is nil and using it panics. Builds with the refdebug tag assert.
func (p *Ptr[T, PT]) Deref() *T {
	debug.Assert(p.ref != nil, "dereference of null %s", typeName[T]())
	return (*T)(p.ref)
}

// Valid reports whether p holds a reference.
func (p *Ptr[T, PT]) Valid() bool {
	return p.ref != nil
}

// Equal reports whether p and other target the same object.
func (p *Ptr[T, PT]) Equal(other *Ptr[T, PT]) bool {
	return p.ref == other.ref
}

// UseCount returns the target's count when the object implements
// Diagnostics. A null handle reports 0. The count is advisory.
func (p *Ptr[T, PT]) UseCount() (uint32, bool) {
	if p.ref == nil {
		return 0, true
	}
	d, ok := any(p.ref).(Diagnostics)
	if !ok {
		return 0, false
	}
	return d.RefCount(), true
}

// String implements fmt.Stringer.
func (p *Ptr[T, PT]) String() string {
	if p.ref == nil {
		return fmt.Sprintf("intrusive.Ptr[%s](nil)", typeName[T]())
	}
	return fmt.Sprintf("intrusive.Ptr[%s](%p)", typeName[T](), p.ref)
}

func release[T any, PT interface {
	*T
	Object
}](ref PT) {
	if ref == nil || !ref.Release() {
		return
	}
	if ce := Logger().Check(zap.DebugLevel, "destroy object"); ce != nil {
		ce.Write(
			zap.String("type", typeName[T]()),
			zap.Uintptr("addr", uintptr(unsafe.Pointer((*T)(ref)))),
		)
	}
	if d, ok := any(ref).(Dropper); ok {
		d.Drop()
	}
}

func typeName[T any]() string {
	return fmt.Sprintf("%T", (*T)(nil))
}

// noCopy trips go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
