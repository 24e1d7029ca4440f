package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseRelease,
				Kind:   KindOverRelease,
				Type:   "*app.Conn",
				Addr:   0xc0ffee,
				Detail: "count already zero",
			},
			contains: []string{"[release]", "over_release", "*app.Conn", "0xc0ffee", "count already zero"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseUpgrade,
				Kind:  KindNilPointer,
			},
			contains: []string{"[upgrade]", "nil_pointer"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "construct object",
				Cause:  errors.New("dial refused"),
			},
			contains: []string{"[alloc]", "allocation", "construct object", "caused by", "dial refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_OmitsZeroAddr(t *testing.T) {
	err := &Error{Phase: PhaseAcquire, Kind: KindOverflow}
	if strings.Contains(err.Error(), " at 0x") {
		t.Errorf("zero address should not be printed: %q", err.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseAlloc,
		Kind:  KindAllocation,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find cause through the chain")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseRelease,
		Kind:  KindOverRelease,
		Type:  "*T",
	}

	if !err.Is(&Error{Phase: PhaseRelease, Kind: KindOverRelease}) {
		t.Error("Is should match same phase and kind")
	}

	if err.Is(&Error{Phase: PhaseAcquire, Kind: KindOverRelease}) {
		t.Error("Is should not match different phase")
	}

	if err.Is(&Error{Phase: PhaseRelease, Kind: KindLeak}) {
		t.Error("Is should not match different kind")
	}

	var target *Error
	if !errors.As(error(err), &target) || target.Type != "*T" {
		t.Error("errors.As should extract *Error")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRegistry, KindLeak).
		Type("*app.Conn").
		Addr(0x10).
		Value(3).
		Cause(cause).
		Detail("%d entries", 3).
		Build()

	if err.Phase != PhaseRegistry {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseRegistry)
	}
	if err.Kind != KindLeak {
		t.Errorf("Kind = %v, want %v", err.Kind, KindLeak)
	}
	if err.Type != "*app.Conn" {
		t.Errorf("Type = %v, want '*app.Conn'", err.Type)
	}
	if err.Addr != 0x10 {
		t.Errorf("Addr = %#x, want 0x10", err.Addr)
	}
	if err.Value != 3 {
		t.Errorf("Value = %v, want 3", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "3 entries" {
		t.Errorf("Detail = %v, want '3 entries'", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("OverRelease", func(t *testing.T) {
		err := OverRelease(PhaseRelease, "*T", 0x20)
		if err.Kind != KindOverRelease || err.Addr != 0x20 {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhaseAcquire, 0)
		if err.Kind != KindOverflow {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		cause := errors.New("no memory")
		err := AllocationFailed("*T", cause)
		if err.Phase != PhaseAlloc || err.Kind != KindAllocation {
			t.Errorf("got %+v", err)
		}
		if !errors.Is(err, cause) {
			t.Error("cause not preserved")
		}
	})

	t.Run("Closed", func(t *testing.T) {
		err := Closed("default")
		if err.Kind != KindClosed || !strings.Contains(err.Detail, "default") {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("Leaked", func(t *testing.T) {
		err := Leaked("r1", 2)
		if err.Kind != KindLeak || err.Value != 2 {
			t.Errorf("got %+v", err)
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		err := NilPointer(PhaseUpgrade, "*T")
		if err.Kind != KindNilPointer {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNilPointer)
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(PhaseRegistry, KindInvalidInput, cause, "decode config")
		if err.Cause != cause || err.Detail != "decode config" {
			t.Errorf("got %+v", err)
		}
	})
}
