//go:build refdebug

package debug

// Enabled reports whether assertions are compiled in.
const Enabled = true

// Assert panics with the formatted message when cond is false.
func Assert(cond bool, format string, args ...any) {
	assertf(cond, format, args...)
}
