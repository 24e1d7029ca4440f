package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates which ownership operation produced the error
type Phase string

const (
	PhaseAcquire  Phase = "acquire"  // first strong handle, copy
	PhaseRelease  Phase = "release"  // handle drop, reset, reassignment
	PhaseUpgrade  Phase = "upgrade"  // weak to strong
	PhaseRegistry Phase = "registry" // structural registry operations
	PhaseAlloc    Phase = "alloc"    // make helpers
)

// Kind categorizes the error
type Kind string

const (
	KindOverRelease  Kind = "over_release"
	KindOverflow     Kind = "overflow"
	KindAllocation   Kind = "allocation"
	KindClosed       Kind = "closed"
	KindLeak         Kind = "leak"
	KindNilPointer   Kind = "nil_pointer"
	KindInvalidInput Kind = "invalid_input"
)

// Error is the structured error type used throughout refptr
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Addr   uintptr
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Type != "" {
		b.WriteString(" on ")
		b.WriteString(e.Type)
	}

	if e.Addr != 0 {
		b.WriteString(" at 0x")
		b.WriteString(strconv.FormatUint(uint64(e.Addr), 16))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Type sets the managed Go type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Addr sets the target address
func (b *Builder) Addr(addr uintptr) *Builder {
	b.err.Addr = addr
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// OverRelease creates an error for a decrement that found the count at zero
func OverRelease(phase Phase, typ string, addr uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverRelease,
		Type:   typ,
		Addr:   addr,
		Detail: "reference count released too often",
	}
}

// Overflow creates an error for a counter that wrapped around
func Overflow(phase Phase, value uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("reference count overflow at %d", value),
		Value:  value,
	}
}

// AllocationFailed wraps a constructor failure from a make helper
func AllocationFailed(typ string, cause error) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocation,
		Type:   typ,
		Detail: "construct object",
		Cause:  cause,
	}
}

// Closed creates an error for use of a closed registry
func Closed(name string) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("registry %q is closed", name),
	}
}

// Leaked creates an error reporting entries still alive at close time
func Leaked(name string, count int) *Error {
	return &Error{
		Phase:  PhaseRegistry,
		Kind:   KindLeak,
		Detail: fmt.Sprintf("registry %q closed with %d live entries", name, count),
		Value:  count,
	}
}

// NilPointer creates a nil pointer error
func NilPointer(phase Phase, typ string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNilPointer,
		Type:   typ,
		Detail: "nil pointer",
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
