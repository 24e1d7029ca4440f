// Package shared implements strong handles for objects whose reference
// count lives in a registry.Registry rather than in the object.
//
// Any *T can be shared:
//
//	reg := registry.New()
//	a := shared.New(reg, &Config{Port: 80}) // entry created, count 1
//	b := a.Clone()                           // count 2
//	a.Reset()                                // count 1
//	b.Reset()                                // entry erased, Drop runs
//
// Wrapping the same raw pointer twice credits the same entry instead of
// creating a second count, so handles built independently from one pointer
// still agree on its lifetime.
//
// UseCount and Unique are snapshots. Other goroutines may change the count
// before the caller acts on the result; never use them to decide whether
// an object may be mutated or destroyed.
//
// Weak observers for these handles live in package weakref.
package shared
