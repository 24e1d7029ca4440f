package handles

import (
	"sync"

	"github.com/wippyai/refptr/errors"
	"github.com/wippyai/refptr/shared"
)

// Handle is an opaque reference to a table slot.
type Handle uint32

// Table is a slot table of strong handles. It is safe for concurrent use,
// except that a *shared.Ptr returned by Slot must only be used by one
// goroutine at a time.
type Table[T any] struct {
	slots    []*shared.Ptr[T]
	freeList []Handle
	mu       sync.RWMutex
	closed   bool
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		slots:    make([]*shared.Ptr[T], 0, 16),
		freeList: make([]Handle, 0, 4),
	}
}

// Insert stores p's reference in a new slot and leaves p null. A null p
// occupies a slot like any other.
func (t *Table[T]) Insert(p *shared.Ptr[T]) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return 0, errors.Closed("handle table")
	}

	owned := p.Move()
	slot := &owned

	if len(t.freeList) > 0 {
		h := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.slots[h-1] = slot
		return h, nil
	}

	t.slots = append(t.slots, slot)
	return Handle(len(t.slots)), nil
}

// Get returns a new strong handle to the object in slot h.
func (t *Table[T]) Get(h Handle) (shared.Ptr[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot := t.lookup(h)
	if slot == nil {
		return shared.Ptr[T]{}, false
	}
	return slot.Clone(), true
}

// Slot returns the handle stored in slot h so it can be reset, assigned
// or swapped in place. The pointer is valid until h is removed.
func (t *Table[T]) Slot(h Handle) (*shared.Ptr[T], bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot := t.lookup(h)
	return slot, slot != nil
}

// Remove releases slot h's reference and frees the handle for reuse.
func (t *Table[T]) Remove(h Handle) bool {
	t.mu.Lock()
	slot := t.lookup(h)
	if slot == nil {
		t.mu.Unlock()
		return false
	}
	t.slots[h-1] = nil
	t.freeList = append(t.freeList, h)
	t.mu.Unlock()

	slot.Reset()
	return true
}

// Len returns the number of occupied slots.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slots) - len(t.freeList)
}

// Each calls fn for every occupied slot in handle order until fn returns
// false. fn must not call back into t.
func (t *Table[T]) Each(fn func(Handle, *shared.Ptr[T]) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for i, slot := range t.slots {
		if slot == nil {
			continue
		}
		if !fn(Handle(i+1), slot) {
			return
		}
	}
}

// Close releases every slot and stops accepting inserts.
func (t *Table[T]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	slots := t.slots
	t.slots = nil
	t.freeList = nil
	t.mu.Unlock()

	for _, slot := range slots {
		if slot != nil {
			slot.Reset()
		}
	}
	return nil
}

// lookup returns slot h or nil. Called with t.mu held.
func (t *Table[T]) lookup(h Handle) *shared.Ptr[T] {
	if h == 0 || int(h) > len(t.slots) {
		return nil
	}
	return t.slots[h-1]
}
