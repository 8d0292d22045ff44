package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad    Phase = "load"    // guest compilation and instantiation
	PhaseBridge  Phase = "bridge"  // graphics import surface
	PhaseDraw    Phase = "draw"    // batching engine
	PhaseFrame   Phase = "frame"   // per-frame guest callback
	PhaseFont    Phase = "font"    // font resource loading
	PhaseRuntime Phase = "runtime" // session lifecycle
)

// Kind categorizes the error
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindBufferTooSmall Kind = "buffer_too_small"
	KindLayoutMismatch Kind = "layout_mismatch"
	KindMissingExport  Kind = "missing_export"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindFrameFault     Kind = "frame_fault"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindInvalidData    Kind = "invalid_data"
	KindInstantiation  Kind = "instantiation"
	KindClosed         Kind = "closed"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value    any
	Cause    error
	Phase    Phase
	Kind     Kind
	Category string // handle table category, e.g. "buffer"
	Detail   string
	Path     []string
	Handle   uint32
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Category != "" {
		b.WriteString(": ")
		b.WriteString(e.Category)
		b.WriteString(" handle ")
		b.WriteString(strconv.FormatUint(uint64(e.Handle), 10))
	}

	if e.Detail != "" {
		if e.Category != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Handle records the offending handle and its table category.
func (b *Builder) Handle(category string, h uint32) *Builder {
	b.err.Category = category
	b.err.Handle = h
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

// HandleNotFound reports a lookup of an absent, removed or zero handle.
func HandleNotFound(phase Phase, category string, h uint32) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindNotFound,
		Category: category,
		Handle:   h,
		Detail:   "no such handle",
	}
}

// BufferTooSmall reports a guest-declared capacity that cannot hold need bytes.
func BufferTooSmall(phase Phase, what string, need, capacity int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBufferTooSmall,
		Path:   []string{what},
		Detail: fmt.Sprintf("need %d bytes, capacity %d", need, capacity),
		Value:  need,
	}
}

// LayoutMismatch reports a vertex whose layout differs from its builder's.
func LayoutMismatch(want, got string) *Error {
	return &Error{
		Phase:  PhaseDraw,
		Kind:   KindLayoutMismatch,
		Detail: fmt.Sprintf("builder layout %q, vertex layout %q", want, got),
	}
}

// OutOfBounds creates an out of bounds error for a guest memory region
func OutOfBounds(phase Phase, path []string, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("region [%d, +%d) outside guest memory", offset, length),
		Value:  offset,
	}
}

// FrameFault wraps a failure raised while a frame was being drawn.
func FrameFault(cause error) *Error {
	return &Error{
		Phase:  PhaseFrame,
		Kind:   KindFrameFault,
		Detail: "frame callback failed",
		Cause:  cause,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
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

// MissingExportsError is returned when a guest lacks required entry points.
type MissingExportsError struct {
	Module  string
	Exports []string
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] missing_export: no exports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("missing %d guest export(s)", len(e.Exports)))
	if e.Module != "" {
		b.WriteString(" in ")
		b.WriteString(e.Module)
	}
	b.WriteByte(':')
	for _, name := range e.Exports {
		b.WriteString("\n  - ")
		b.WriteString(name)
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	if _, ok := target.(*MissingExportsError); ok {
		return true
	}
	if t, ok := target.(*Error); ok {
		return t.Kind == KindMissingExport && (t.Phase == "" || t.Phase == PhaseLoad)
	}
	return false
}

// MissingExport wraps a MissingExportsError so callers can match on Kind.
func MissingExport(module string, names ...string) *Error {
	return &Error{
		Phase: PhaseLoad,
		Kind:  KindMissingExport,
		Cause: &MissingExportsError{Module: module, Exports: names},
	}
}

// Runtime package convenience constructors

// NotInitialized creates a not-initialized error for missing module/instance
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
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

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInstantiation,
		Detail: "instantiate guest module",
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// Closed reports use of a session or context after teardown.
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " is closed",
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsNotFound reports whether err is a handle or name lookup failure.
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }
