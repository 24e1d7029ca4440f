// Package errors provides structured error types for the refptr library.
//
// Errors are categorized by Phase (which ownership operation failed) and Kind
// (error category). The Error type carries the managed Go type, the target
// address and an optional cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseRelease, errors.KindOverRelease).
//		Type("*app.Conn").
//		Addr(0xc000012345).
//		Detail("count already zero").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.OverRelease(errors.PhaseRelease, "*app.Conn", addr)
//	err := errors.AllocationFailed("*app.Conn", cause)
//
// Programmer errors such as over-release or use of a closed registry are
// raised as panics carrying an *Error; recoverable failures are returned.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
