// Package debug holds assertions that are compiled in only with the
// refdebug build tag.
package debug

import "fmt"

func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("refptr: assertion failed: "+format, args...))
	}
}
