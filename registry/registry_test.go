package registry

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	rerrors "github.com/wippyai/refptr/errors"
)

type object struct {
	id int
}

var objectType = reflect.TypeFor[*object]()

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) OnRegistryEvent(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func TestRegistry_AcquireRelease(t *testing.T) {
	r := New()
	obj := &object{id: 1}
	addr := unsafe.Pointer(obj)

	var drops int
	ref := r.Acquire(addr, objectType, func() { drops++ })
	if !ref.Valid() {
		t.Fatal("Acquire returned invalid ref")
	}
	if ref.Addr() != addr {
		t.Fatal("Addr mismatch")
	}
	if ref.Registry() != r {
		t.Fatal("Registry mismatch")
	}
	if r.UseCount(addr) != 1 || !r.Alive(addr) || r.Len() != 1 {
		t.Fatalf("after Acquire: count=%d alive=%v len=%d", r.UseCount(addr), r.Alive(addr), r.Len())
	}

	// A second Acquire on the same address credits the existing entry and
	// ignores the new destructor.
	second := r.Acquire(addr, objectType, func() { t.Error("second destructor must not run") })
	if r.UseCount(addr) != 2 || r.Len() != 1 {
		t.Fatalf("after second Acquire: count=%d len=%d", r.UseCount(addr), r.Len())
	}

	clone := ref.Clone()
	if clone.UseCount() != 3 {
		t.Fatalf("UseCount() = %d, want 3", clone.UseCount())
	}

	if clone.Release() || second.Release() {
		t.Fatal("non-final release reported last")
	}
	if drops != 0 {
		t.Fatal("destroyed too early")
	}
	if !ref.Release() {
		t.Fatal("final release should report last")
	}
	if drops != 1 {
		t.Fatalf("drops = %d, want 1", drops)
	}
	if r.Alive(addr) || r.Len() != 0 || r.UseCount(addr) != 0 {
		t.Fatal("entry should be erased")
	}
}

func TestRegistry_ZeroRef(t *testing.T) {
	var ref Ref
	if ref.Valid() || ref.Addr() != nil || ref.UseCount() != 0 {
		t.Fatal("zero Ref should be empty")
	}
	if ref.Release() {
		t.Fatal("releasing zero Ref should be a no-op")
	}
	if ref.Clone().Valid() {
		t.Fatal("clone of zero Ref should be empty")
	}
}

func TestRegistry_Upgrade(t *testing.T) {
	r := New()
	obj := &object{}
	addr := unsafe.Pointer(obj)

	if _, ok := r.Upgrade(addr); ok {
		t.Fatal("Upgrade should fail for unknown address")
	}
	if _, ok := r.Upgrade(nil); ok {
		t.Fatal("Upgrade should fail for nil")
	}

	ref := r.Acquire(addr, objectType, nil)
	up, ok := r.Upgrade(addr)
	if !ok || up.Addr() != addr {
		t.Fatal("Upgrade should succeed for live address")
	}
	if r.UseCount(addr) != 2 {
		t.Fatalf("UseCount() = %d, want 2", r.UseCount(addr))
	}

	up.Release()
	ref.Release()
	if _, ok := r.Upgrade(addr); ok {
		t.Fatal("Upgrade should fail after last release")
	}

	s := r.Stats()
	if s.Upgrades != 1 || s.FailedUpgrades != 2 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestRegistry_AcquireNilPanics(t *testing.T) {
	r := New()
	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, &rerrors.Error{Phase: rerrors.PhaseAcquire, Kind: rerrors.KindNilPointer}) {
			t.Fatalf("unexpected panic: %v", err)
		}
	}()
	r.Acquire(nil, objectType, nil)
}

func TestRegistry_OverReleasePanics(t *testing.T) {
	r := New()
	obj := &object{}
	ref := r.Acquire(unsafe.Pointer(obj), objectType, nil)
	ref.Release()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double release")
		}
	}()
	ref.Release()
}

func TestRegistry_Observers(t *testing.T) {
	rec := &recorder{}
	r := New(WithObserver(rec))
	obj := &object{}

	ref := r.Acquire(unsafe.Pointer(obj), objectType, nil)
	ref.Clone().Release()
	ref.Release()

	kinds := rec.kinds()
	if len(kinds) != 2 || kinds[0] != EventCreated || kinds[1] != EventDestroyed {
		t.Fatalf("events = %v", kinds)
	}
	if rec.events[0].Type != objectType || rec.events[0].Addr != uintptr(unsafe.Pointer(obj)) {
		t.Fatalf("event = %+v", rec.events[0])
	}

	var funcCalls int
	fn := ObserverFunc(func(Event) { funcCalls++ })
	r.Subscribe(fn)
	r.Unsubscribe(rec)
	r.Acquire(unsafe.Pointer(obj), objectType, nil).Release()
	if len(rec.kinds()) != 2 {
		t.Fatal("unsubscribed observer received events")
	}
	if funcCalls != 2 {
		t.Fatalf("ObserverFunc called %d times, want 2", funcCalls)
	}
}

func TestRegistry_UnsubscribeObserverFunc(t *testing.T) {
	r := New()
	obj := &object{}

	var calls int
	fn := ObserverFunc(func(Event) { calls++ })
	cancel := r.Subscribe(fn)

	// Func observers are not comparable; Unsubscribe must leave them be.
	r.Unsubscribe(fn)
	r.Acquire(unsafe.Pointer(obj), objectType, nil).Release()
	if calls != 2 {
		t.Fatalf("ObserverFunc called %d times, want 2", calls)
	}

	cancel()
	cancel()
	r.Acquire(unsafe.Pointer(obj), objectType, nil).Release()
	if calls != 2 {
		t.Fatalf("cancelled observer still called, %d calls", calls)
	}

	// Cancelling one subscription keeps the others.
	rec := &recorder{}
	cancelRec := r.Subscribe(rec)
	r.Subscribe(rec)
	cancelRec()
	r.Acquire(unsafe.Pointer(obj), objectType, nil).Release()
	if len(rec.kinds()) != 2 {
		t.Fatalf("events = %v, want one created and one destroyed", rec.kinds())
	}
	r.Unsubscribe(nil)
}

func TestRegistry_StatsSettleAfterChurn(t *testing.T) {
	r := New()
	objs := make([]*object, 16)
	for i := range objs {
		objs[i] = &object{id: i}
	}

	var wg sync.WaitGroup
	for i := range objs {
		wg.Add(1)
		go func(o *object) {
			defer wg.Done()
			ref := r.Acquire(unsafe.Pointer(o), objectType, nil)
			for j := 0; j < 100; j++ {
				ref.Clone().Release()
				_ = r.Stats()
			}
			if o.id%2 == 0 {
				ref.Release()
			}
		}(objs[i])
	}
	wg.Wait()

	s := r.Stats()
	if s.Live != 8 || uint64(s.Live) != s.Created-s.Destroyed {
		t.Fatalf("stats = %+v, want Live 8 and Live == Created-Destroyed once quiescent", s)
	}
}

func TestRegistry_DestructorReleasesSibling(t *testing.T) {
	r := New()
	child := &object{id: 2}
	parent := &object{id: 1}

	childRef := r.Acquire(unsafe.Pointer(child), objectType, nil)
	parentRef := r.Acquire(unsafe.Pointer(parent), objectType, func() {
		childRef.Release()
	})

	parentRef.Release()
	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", r.Len())
	}
}

func TestRegistry_SnapshotAndEach(t *testing.T) {
	r := New()
	a, b := &object{}, &object{}
	ra := r.Acquire(unsafe.Pointer(a), objectType, nil)
	rb := r.Acquire(unsafe.Pointer(b), nil, nil)
	rb2 := rb.Clone()

	entries := r.Snapshot()
	if len(entries) != 2 {
		t.Fatalf("Snapshot() len = %d, want 2", len(entries))
	}
	for _, e := range entries {
		switch e.Addr {
		case uintptr(unsafe.Pointer(a)):
			if e.Count != 1 || e.TypeName() != "*registry.object" {
				t.Fatalf("entry a = %+v", e)
			}
		case uintptr(unsafe.Pointer(b)):
			if e.Count != 2 || e.TypeName() != "unknown" {
				t.Fatalf("entry b = %+v", e)
			}
		default:
			t.Fatalf("unexpected entry %+v", e)
		}
	}

	visited := 0
	r.Each(func(Entry) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Fatalf("Each visited %d entries after stop, want 1", visited)
	}

	ra.Release()
	rb.Release()
	rb2.Release()
}

func TestRegistry_Close(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := New(WithName("test"), WithLogger(zap.New(core)))
	obj := &object{}

	if err := New().Close(); err != nil {
		t.Fatalf("Close of empty registry: %v", err)
	}

	ref := r.Acquire(unsafe.Pointer(obj), objectType, nil)
	err := r.Close()
	if !errors.Is(err, &rerrors.Error{Phase: rerrors.PhaseRegistry, Kind: rerrors.KindLeak}) {
		t.Fatalf("expected leak error, got %v", err)
	}
	if logs.FilterMessage("entry alive at close").Len() != 1 {
		t.Fatalf("expected one leak log, got %d", logs.Len())
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}

	// Outstanding references keep working after Close, and a live
	// address can still be credited through Acquire.
	again := r.Acquire(unsafe.Pointer(obj), objectType, nil)
	if again.UseCount() != 2 {
		t.Fatalf("UseCount() = %d after Acquire on live entry, want 2", again.UseCount())
	}
	again.Release()
	clone := ref.Clone()
	clone.Release()
	if !ref.Release() {
		t.Fatal("final release after Close should report last")
	}

	defer func() {
		err, ok := recover().(error)
		if !ok || !errors.Is(err, &rerrors.Error{Phase: rerrors.PhaseRegistry, Kind: rerrors.KindClosed}) {
			t.Fatalf("unexpected panic: %v", err)
		}
	}()
	r.Acquire(unsafe.Pointer(obj), objectType, nil)
}

func TestRegistry_TraceLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := New(WithLogger(zap.New(core)))
	obj := &object{}

	r.Acquire(unsafe.Pointer(obj), objectType, nil).Release()

	if logs.FilterMessage("entry created").Len() != 1 {
		t.Fatal("missing entry created log")
	}
	if logs.FilterMessage("entry destroyed").Len() != 1 {
		t.Fatal("missing entry destroyed log")
	}
}

func TestDefault(t *testing.T) {
	if Default() != Default() {
		t.Fatal("Default should return the same registry")
	}
	if Default().Name() != "default" {
		t.Fatalf("Name() = %q, want default", Default().Name())
	}
}

func TestRegistry_ConcurrentFirstAcquire(t *testing.T) {
	r := New()
	obj := &object{}
	addr := unsafe.Pointer(obj)

	var destroys atomic.Int32
	const workers = 32

	refs := make([]Ref, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			refs[i] = r.Acquire(addr, objectType, func() { destroys.Add(1) })
		}(i)
	}
	wg.Wait()

	if r.UseCount(addr) != workers {
		t.Fatalf("UseCount() = %d, want %d", r.UseCount(addr), workers)
	}
	if r.Stats().Created != 1 {
		t.Fatalf("Created = %d, want 1", r.Stats().Created)
	}

	for _, ref := range refs {
		ref.Release()
	}
	if destroys.Load() != 1 {
		t.Fatalf("destroys = %d, want 1", destroys.Load())
	}
}

func TestRegistry_ConcurrentChurn(t *testing.T) {
	r := New()
	obj := &object{}
	addr := unsafe.Pointer(obj)

	var destroys atomic.Int32
	destroy := func() { destroys.Add(1) }

	const workers = 8
	const iterations = 2000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				ref := r.Acquire(addr, objectType, destroy)
				c := ref.Clone()
				c.Release()
				ref.Release()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				if ref, ok := r.Upgrade(addr); ok {
					ref.Release()
				}
			}
		}()
	}
	wg.Wait()

	s := r.Stats()
	if s.Live != 0 || r.UseCount(addr) != 0 {
		t.Fatalf("stats after churn = %+v", s)
	}
	if uint64(destroys.Load()) != s.Created || s.Created != s.Destroyed {
		t.Fatalf("destroys=%d created=%d destroyed=%d", destroys.Load(), s.Created, s.Destroyed)
	}
}
