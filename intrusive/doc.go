// Package intrusive implements strong and weak handles for objects that
// carry their own reference count.
//
// An object opts in by providing AddRef and Release, usually by embedding
// Base:
//
//	type Conn struct {
//	    intrusive.Base
//	    fd int
//	}
//
//	func (c *Conn) Drop() { syscall.Close(c.fd) }
//
//	p := intrusive.New(&Conn{fd: fd}) // count 1
//	q := p.Clone()                    // count 2
//	p.Reset()                         // count 1
//	q.Reset()                         // count 0, Drop runs
//
// # Handles
//
// Ptr owns zero or one reference. Go has no copy constructors or
// destructors, so ownership transfer is explicit:
//
//	Clone      copy construction, credits the target
//	Move       move construction, the source becomes null
//	Assign     copy assignment
//	MoveAssign move assignment
//	AssignRaw  assignment from a raw pointer or nil
//	Reset      drop the reference
//
// A Ptr value must not be copied with the assignment operator; the copy
// would share the credit of the original. go vet reports such copies.
//
// # Destruction
//
// When the last reference is released the object's Drop method runs, if
// the object implements Dropper. This is the only place objects are
// destroyed. The memory itself stays under control of the garbage
// collector.
//
// # Weak handles
//
// Objects that also provide TryAddRef and RefCount (Base does) support
// Weak handles. A Weak holds a weak.Pointer and never keeps the object
// reachable; Lock upgrades it to a Ptr only if the count has not reached
// zero.
package intrusive
