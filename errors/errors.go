package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // engine fetch, compile and instantiate
	PhaseConfig    Phase = "config"    // settings and recognizer config normalization
	PhaseEncode    Phase = "encode"    // Go config to engine memory
	PhaseRelease   Phase = "release"   // allocation graph teardown
	PhaseNative    Phase = "native"    // calls into engine entry points
	PhaseDecode    Phase = "decode"    // engine memory to Go
	PhaseLifecycle Phase = "lifecycle" // handle ownership and misuse
	PhaseCache     Phase = "cache"     // asset cache
	PhaseAudio     Phase = "audio"     // capture, resampling and WAV io
)

// Kind categorizes the error
type Kind string

const (
	KindTypeMismatch   Kind = "type_mismatch"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindAllocation     Kind = "allocation"
	KindInvalidUTF8    Kind = "invalid_utf8"
	KindNullHandle     Kind = "null_handle"
	KindInvalidHandle  Kind = "invalid_handle"
	KindDoubleRelease  Kind = "double_release"
	KindInvalidJSON    Kind = "invalid_json"
	KindMissingExport  Kind = "missing_export"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindInstantiation  Kind = "instantiation"
	KindCall           Kind = "call"
	KindIO             Kind = "io"
)

// Error is the structured error type used throughout the binding
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Entry  string
	Detail string
	Path   []string
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

	if e.Entry != "" {
		b.WriteString(" in ")
		b.WriteString(e.Entry)
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

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Entry sets the engine entry point involved
func (b *Builder) Entry(name string) *Builder {
	b.err.Entry = name
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

// TypeMismatch creates a type mismatch error for a layout slot
func TypeMismatch(phase Phase, path []string, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		Detail: fmt.Sprintf("slot expects %s, got %s", want, got),
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
		Value:  size,
	}
}

// NullHandle reports that a create entry point returned 0
func NullHandle(entry string) *Error {
	return &Error{
		Phase:  PhaseNative,
		Kind:   KindNullHandle,
		Entry:  entry,
		Detail: "engine returned a null handle",
	}
}

// InvalidHandle reports use of a freed or foreign handle
func InvalidHandle(what string) *Error {
	return &Error{
		Phase:  PhaseLifecycle,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("%s used after free", what),
	}
}

// DoubleRelease reports a second release of the same allocation graph
func DoubleRelease() *Error {
	return &Error{
		Phase:  PhaseRelease,
		Kind:   KindDoubleRelease,
		Detail: "allocation graph already released",
	}
}

// InvalidJSON creates a result parse error carrying the raw payload
func InvalidJSON(entry string, raw string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidJSON,
		Entry:  entry,
		Detail: "malformed result JSON",
		Value:  raw,
		Cause:  cause,
	}
}

// MissingExport reports an entry point absent from the loaded engine
func MissingExport(names ...string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindMissingExport,
		Detail: fmt.Sprintf("engine does not export %s", strings.Join(names, ", ")),
		Value:  names,
	}
}

// OutOfBounds creates an out of bounds memory error
func OutOfBounds(phase Phase, offset, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("offset=%d, length=%d", offset, length),
		Value:  offset,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Path:   path,
		Detail: detail,
	}
}

// NotInitialized reports use of the engine before loading succeeded
func NotInitialized(what string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindNotInitialized,
		Detail: what,
	}
}

// Call wraps a trap or host failure raised by an entry point
func Call(entry string, cause error) *Error {
	return &Error{
		Phase: PhaseNative,
		Kind:  KindCall,
		Entry: entry,
		Cause: cause,
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
