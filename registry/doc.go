// Package registry keeps reference counts for objects that do not carry
// their own, keyed by object address.
//
// A Registry is an explicit object with a bounded lifetime. Handle packages
// talk to it through Ref, a single credited reference:
//
//	reg := registry.New(registry.WithName("conns"))
//	defer reg.Close()
//
//	ref := reg.Acquire(unsafe.Pointer(c), reflect.TypeFor[*Conn](), c.Close)
//	dup := ref.Clone()  // lock-free credit
//	dup.Release()       // lock-free, not last
//	ref.Release()       // last: entry erased, c.Close runs
//
// # Locking
//
// One RWMutex guards the structure of the table. Acquire (insert or credit)
// and the final release (the 1 to 0 transition plus erase) take it
// exclusively. Upgrade takes it shared: the count cannot reach zero while
// any reader holds the lock, so checking liveness and crediting form one
// atomic step. Clone and non-final releases never lock.
//
// Destructors run after the lock is dropped, exactly once, on the goroutine
// that performed the final release. A destructor may release other handles
// from the same registry.
//
// # Observers
//
// Subscribers receive EventCreated when an address gets its first strong
// reference and EventDestroyed after its destructor ran.
package registry
