package debug

import "testing"

func TestAssertf(t *testing.T) {
	assertf(true, "never fires")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		msg, ok := r.(string)
		if !ok || msg != "refptr: assertion failed: count 0" {
			t.Fatalf("unexpected panic value %v", r)
		}
	}()
	assertf(false, "count %d", 0)
}

func TestAssert(t *testing.T) {
	defer func() {
		r := recover()
		if Enabled && r == nil {
			t.Fatal("expected panic with refdebug")
		}
		if !Enabled && r != nil {
			t.Fatalf("unexpected panic without refdebug: %v", r)
		}
	}()
	Assert(false, "fires only with refdebug")
}
