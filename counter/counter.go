// Package counter provides the atomic reference counter shared by the
// intrusive and registry-backed handle families.
package counter

import (
	"go.uber.org/atomic"

	"github.com/wippyai/refptr/errors"
)

// Counter is a non-negative atomic reference count.
// The zero value is a valid counter holding zero references.
//
// A Counter must not be copied after first use.
type Counter struct {
	_ noCopy
	n atomic.Uint32
}

// Increment adds one reference. Incrementing a saturated count panics and
// leaves the count unchanged.
func (c *Counter) Increment() {
	for {
		cur := c.n.Load()
		if cur == ^uint32(0) {
			panic(errors.Overflow(errors.PhaseAcquire, cur))
		}
		if c.n.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// DecrementAndCheck removes one reference and reports whether the count
// reached zero. Decrementing a zero count panics.
func (c *Counter) DecrementAndCheck() bool {
	n := c.n.Dec()
	if n == ^uint32(0) {
		panic(errors.OverRelease(errors.PhaseRelease, "", 0))
	}
	return n == 0
}

// IncrementIfPositive adds one reference unless the count is zero.
// A zero count is never resurrected.
func (c *Counter) IncrementIfPositive() bool {
	for {
		cur := c.n.Load()
		if cur == 0 {
			return false
		}
		if cur == ^uint32(0) {
			panic(errors.Overflow(errors.PhaseUpgrade, cur))
		}
		if c.n.CompareAndSwap(cur, cur+1) {
			return true
		}
	}
}

// DecrementUnlessLast removes one reference only if at least one other
// reference remains. It reports whether it decremented.
func (c *Counter) DecrementUnlessLast() bool {
	for {
		cur := c.n.Load()
		if cur <= 1 {
			return false
		}
		if c.n.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}

// Load returns the current count. The value is inherently racy and is only
// meaningful as a diagnostic.
func (c *Counter) Load() uint32 {
	return c.n.Load()
}

// noCopy trips go vet's copylocks check.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
