package registry

import (
	"reflect"
	"sync"
	"unsafe"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/wippyai/refptr/counter"
	"github.com/wippyai/refptr/errors"
	"github.com/wippyai/refptr/internal/debug"
)

// Registry maps object addresses to reference counts.
type Registry struct {
	entries   map[unsafe.Pointer]*entry
	log       *zap.Logger
	name      string
	observers []subscription
	nextSub   uint64
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool

	created        atomic.Uint64
	destroyed      atomic.Uint64
	upgrades       atomic.Uint64
	failedUpgrades atomic.Uint64
}

type subscription struct {
	id uint64
	o  Observer
}

type entry struct {
	addr    unsafe.Pointer
	typ     reflect.Type
	destroy func()
	refs    counter.Counter
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[unsafe.Pointer]*entry),
		name:    "registry",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = Logger()
	}
	r.log = r.log.With(zap.String("registry", r.name))
	return r
}

// Name returns the registry's label.
func (r *Registry) Name() string {
	return r.name
}

// Acquire returns one credited reference to addr. The first reference to
// an address creates its entry with destroy as the destructor; later
// references credit the existing entry and ignore typ and destroy.
//
// Acquire panics if addr is nil, or if the registry is closed and addr has
// no live entry.
func (r *Registry) Acquire(addr unsafe.Pointer, typ reflect.Type, destroy func()) Ref {
	if addr == nil {
		panic(errors.NilPointer(errors.PhaseAcquire, typeString(typ)))
	}

	r.mu.Lock()
	if e, ok := r.entries[addr]; ok {
		debug.Assert(e.refs.Load() > 0, "live entry %p with zero count", addr)
		e.refs.Increment()
		r.mu.Unlock()
		return Ref{r: r, e: e}
	}
	if r.closed {
		r.mu.Unlock()
		panic(errors.Closed(r.name))
	}
	e := &entry{
		addr:    addr,
		typ:     typ,
		destroy: destroy,
	}
	e.refs.Increment()
	r.entries[addr] = e
	r.mu.Unlock()

	r.created.Inc()
	if ce := r.log.Check(zap.DebugLevel, "entry created"); ce != nil {
		ce.Write(zap.Uintptr("addr", uintptr(addr)), zap.String("type", typeString(typ)))
	}
	r.notify(Event{Kind: EventCreated, Addr: uintptr(addr), Type: typ, Registry: r.name})

	return Ref{r: r, e: e}
}

// Upgrade returns a new credited reference to addr if it still has a live
// entry. The check and the credit happen under the shared lock, which the
// final release needs exclusively.
func (r *Registry) Upgrade(addr unsafe.Pointer) (Ref, bool) {
	if addr == nil {
		return Ref{}, false
	}

	r.mu.RLock()
	e, ok := r.entries[addr]
	if ok {
		ok = e.refs.IncrementIfPositive()
	}
	r.mu.RUnlock()

	if !ok {
		r.failedUpgrades.Inc()
		return Ref{}, false
	}
	r.upgrades.Inc()
	return Ref{r: r, e: e}, true
}

// Alive reports whether addr currently has a live entry.
func (r *Registry) Alive(addr unsafe.Pointer) bool {
	if addr == nil {
		return false
	}
	r.mu.RLock()
	_, ok := r.entries[addr]
	r.mu.RUnlock()
	return ok
}

// UseCount returns the count for addr, 0 if it has no entry.
// The value may be stale by the time the caller sees it.
func (r *Registry) UseCount(addr unsafe.Pointer) uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[addr]; ok {
		return e.refs.Load()
	}
	return 0
}

// Len returns the number of live entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Each calls fn with a snapshot of every live entry until fn returns false.
// fn runs without the registry lock held.
func (r *Registry) Each(fn func(Entry) bool) {
	for _, e := range r.Snapshot() {
		if !fn(e) {
			return
		}
	}
}

// Snapshot returns a view of all live entries.
func (r *Registry) Snapshot() []Entry {
	r.mu.RLock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Entry{
			Addr:  uintptr(e.addr),
			Type:  e.typ,
			Count: e.refs.Load(),
		})
	}
	r.mu.RUnlock()
	return out
}

// Stats returns activity counters. The fields are read one at a time and
// the totals are bumped after the lock is released, so under concurrent
// use they may briefly disagree (Live above Created, for instance).
// Advisory only.
func (r *Registry) Stats() Stats {
	return Stats{
		Live:           r.Len(),
		Created:        r.created.Load(),
		Destroyed:      r.destroyed.Load(),
		Upgrades:       r.upgrades.Load(),
		FailedUpgrades: r.failedUpgrades.Load(),
	}
}

// Subscribe adds an observer for lifecycle events. The returned function
// removes this subscription; calling it more than once is harmless.
func (r *Registry) Subscribe(o Observer) (cancel func()) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	id := r.subscribe(o)
	return func() { r.cancel(id) }
}

// Unsubscribe removes the first subscription of o. Observers whose
// dynamic type is not comparable, such as ObserverFunc, cannot be found
// this way and are left in place; remove them with the function
// Subscribe returned.
func (r *Registry) Unsubscribe(o Observer) {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return
	}
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, sub := range r.observers {
		if sub.o == o {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// subscribe records o. Called with r.obsMu held or before r is shared.
func (r *Registry) subscribe(o Observer) uint64 {
	r.nextSub++
	r.observers = append(r.observers, subscription{id: r.nextSub, o: o})
	return r.nextSub
}

func (r *Registry) cancel(id uint64) {
	r.obsMu.Lock()
	defer r.obsMu.Unlock()
	for i, sub := range r.observers {
		if sub.id == id {
			r.observers = append(r.observers[:i], r.observers[i+1:]...)
			return
		}
	}
}

// Close stops the registry from accepting new addresses. Entries that are
// still alive are logged and reported as a leak; their handles keep working
// and release normally, and Acquire, Upgrade and Ref.Clone may still
// credit them. Only an address without a live entry makes Acquire panic.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	leaked := r.Snapshot()
	if len(leaked) == 0 {
		return nil
	}
	for _, e := range leaked {
		r.log.Warn("entry alive at close",
			zap.Uintptr("addr", e.Addr),
			zap.String("type", e.TypeName()),
			zap.Uint32("count", e.Count),
		)
	}
	return errors.Leaked(r.name, len(leaked))
}

// release drops one credit on e. It reports whether that was the last one,
// in which case the entry is erased and its destructor has run.
func (r *Registry) release(e *entry) bool {
	if e.refs.DecrementUnlessLast() {
		return false
	}

	r.mu.Lock()
	// Upgrade or Acquire may have credited e since the fast path gave up.
	if !e.refs.DecrementAndCheck() {
		r.mu.Unlock()
		return false
	}
	if cur, ok := r.entries[e.addr]; ok && cur == e {
		delete(r.entries, e.addr)
	}
	r.mu.Unlock()

	if ce := r.log.Check(zap.DebugLevel, "entry destroyed"); ce != nil {
		ce.Write(zap.Uintptr("addr", uintptr(e.addr)), zap.String("type", typeString(e.typ)))
	}
	if e.destroy != nil {
		e.destroy()
	}
	r.destroyed.Inc()
	r.notify(Event{Kind: EventDestroyed, Addr: uintptr(e.addr), Type: e.typ, Registry: r.name})
	return true
}

func (r *Registry) notify(ev Event) {
	r.obsMu.RLock()
	defer r.obsMu.RUnlock()
	for _, sub := range r.observers {
		sub.o.OnRegistryEvent(ev)
	}
}

func typeString(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}
