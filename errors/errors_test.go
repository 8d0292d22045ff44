package errors

import (
	"errors"
	"fmt"
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
			name: "handle error",
			err: &Error{
				Phase:    PhaseBridge,
				Kind:     KindNotFound,
				Category: "buffer",
				Handle:   7,
				Detail:   "no such handle",
			},
			contains: []string{"[bridge]", "not_found", "buffer handle 7", "no such handle"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDraw,
				Kind:  KindLayoutMismatch,
			},
			contains: []string{"[draw]", "layout_mismatch"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseFrame,
				Kind:   KindFrameFault,
				Detail: "frame callback failed",
				Cause:  errors.New("unreachable"),
			},
			contains: []string{"[frame]", "frame_fault", "caused by", "unreachable"},
		},
		{
			name: "path",
			err: &Error{
				Phase: PhaseBridge,
				Kind:  KindBufferTooSmall,
				Path:  []string{"getActiveUniform", "name"},
			},
			contains: []string{"at getActiveUniform.name"},
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

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := HandleNotFound(PhaseBridge, "texture", 3)

	if !err.Is(&Error{Phase: PhaseBridge, Kind: KindNotFound}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseDraw, Kind: KindNotFound}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseBridge, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	wrapped := fmt.Errorf("draw: %w", err)
	if !errors.Is(wrapped, &Error{Phase: PhaseBridge, Kind: KindNotFound}) {
		t.Error("errors.Is should see through fmt wrapping")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseBridge, KindNotFound).
		Path("bindBuffer").
		Handle("buffer", 9).
		Value(42).
		Cause(cause).
		Detail("target %#x", 0x8892).
		Build()

	if err.Phase != PhaseBridge {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseBridge)
	}
	if err.Kind != KindNotFound {
		t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
	}
	if len(err.Path) != 1 || err.Path[0] != "bindBuffer" {
		t.Errorf("Path = %v, want [bindBuffer]", err.Path)
	}
	if err.Category != "buffer" || err.Handle != 9 {
		t.Errorf("Category=%q Handle=%d", err.Category, err.Handle)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "target 0x8892" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("BufferTooSmall", func(t *testing.T) {
		err := BufferTooSmall(PhaseBridge, "name", 9, 9)
		if err.Kind != KindBufferTooSmall {
			t.Errorf("Kind = %v, want %v", err.Kind, KindBufferTooSmall)
		}
		if !strings.Contains(err.Detail, "capacity 9") {
			t.Errorf("Detail = %v", err.Detail)
		}
	})

	t.Run("LayoutMismatch", func(t *testing.T) {
		err := LayoutMismatch("color", "text")
		if err.Phase != PhaseDraw || err.Kind != KindLayoutMismatch {
			t.Errorf("got %v/%v", err.Phase, err.Kind)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseBridge, []string{"bufferData"}, 65530, 16)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != uint32(65530) {
			t.Errorf("Value = %v, want 65530", err.Value)
		}
	})

	t.Run("FrameFault", func(t *testing.T) {
		cause := HandleNotFound(PhaseBridge, "program", 2)
		err := FrameFault(cause)
		if !IsKind(err, KindFrameFault) || !IsNotFound(err) {
			t.Errorf("frame fault should expose both kinds: %v", err)
		}
		if KindOf(err) != KindFrameFault {
			t.Errorf("KindOf = %v", KindOf(err))
		}
	})
}

func TestMissingExportsError(t *testing.T) {
	t.Run("lists names", func(t *testing.T) {
		err := MissingExport("guest", "new", "draw")
		msg := err.Error()
		for _, s := range []string{"missing_export", "2 guest export(s)", "new", "draw"} {
			if !strings.Contains(msg, s) {
				t.Errorf("%q does not contain %q", msg, s)
			}
		}
	})

	t.Run("empty", func(t *testing.T) {
		err := &MissingExportsError{}
		if !strings.Contains(err.Error(), "no exports specified") {
			t.Errorf("got %s", err.Error())
		}
	})

	t.Run("errors.Is", func(t *testing.T) {
		err := MissingExport("", "draw")
		if !errors.Is(err, &MissingExportsError{}) {
			t.Error("errors.Is should match MissingExportsError")
		}
		if !errors.Is(err, &Error{Phase: PhaseLoad, Kind: KindMissingExport}) {
			t.Error("errors.Is should match phase and kind")
		}
	})
}

func TestKindOf_NoStructuredError(t *testing.T) {
	if k := KindOf(errors.New("plain")); k != "" {
		t.Errorf("KindOf(plain) = %q", k)
	}
	if IsKind(nil, KindNotFound) {
		t.Error("IsKind(nil) should be false")
	}
}
