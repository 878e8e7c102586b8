package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode  Phase = "decode"  // marshal stream to value graph
	PhaseEncode  Phase = "encode"  // value graph to marshal stream
	PhaseConvert Phase = "convert" // value graph to/from Go values
	PhaseInspect Phase = "inspect" // value graph rendering
	PhaseArena   Phase = "arena"   // direct arena operations
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidVersion    Kind = "invalid_version"
	KindIO                Kind = "io"
	KindInvalidTag        Kind = "invalid_tag"
	KindInvalidHandle     Kind = "invalid_handle"
	KindInvalidFixnumSize Kind = "invalid_fixnum_size"
	KindOverflow          Kind = "overflow"
	KindInvalidFloat      Kind = "invalid_float"
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindMissingSymbolLink Kind = "missing_symbol_link"
	KindMissingObjectLink Kind = "missing_object_link"
	KindUnexpectedKind    Kind = "unexpected_kind"
	KindNotAnObject       Kind = "not_an_object"
	KindDuplicateIVar     Kind = "duplicate_ivar"
	KindDepthExceeded     Kind = "depth_exceeded"
	KindTypeMismatch      Kind = "type_mismatch"
	KindNilPointer        Kind = "nil_pointer"
	KindFieldMissing      Kind = "field_missing"
	KindCycle             Kind = "cycle"
	KindUnsupported       Kind = "unsupported"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
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

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
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

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
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

// InvalidVersion creates a header version mismatch error
func InvalidVersion(major, minor byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidVersion,
		Detail: fmt.Sprintf("invalid version %d.%d", major, minor),
	}
}

// IO wraps an I/O failure from the underlying byte source or sink
func IO(phase Phase, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: "I/O error",
		Cause:  cause,
	}
}

// InvalidTag creates an unknown tag byte error
func InvalidTag(tag byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidTag,
		Detail: fmt.Sprintf("invalid value tag 0x%02x", tag),
		Value:  tag,
	}
}

// InvalidHandle creates an invalid value handle dereference error
func InvalidHandle(phase Phase, handle any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Detail: "invalid value handle",
		Value:  handle,
	}
}

// InvalidFixnumSize creates an invalid fixnum byte-count error
func InvalidFixnumSize(size byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidFixnumSize,
		Detail: fmt.Sprintf("invalid fixnum size %d", size),
		Value:  size,
	}
}

// Overflow creates a numeric conversion overflow error
func Overflow(phase Phase, value any, targetType string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:  value,
	}
}

// InvalidFloat creates an unparsable float text error
func InvalidFloat(text []byte, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidFloat,
		Detail: fmt.Sprintf("float text %q cannot be parsed", text),
		Cause:  cause,
	}
}

// InvalidUTF8 creates an invalid UTF-8 error
func InvalidUTF8(phase Phase, data []byte) *Error {
	preview := data
	if len(preview) > 32 {
		preview = preview[:32]
	}
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Detail: fmt.Sprintf("invalid UTF-8 sequence: %x", preview),
	}
}

// MissingSymbolLink creates a dangling symbol back-reference error
func MissingSymbolLink(index int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMissingSymbolLink,
		Detail: fmt.Sprintf("missing symbol link %d", index),
		Value:  index,
	}
}

// MissingObjectLink creates a dangling object back-reference error
func MissingObjectLink(index int) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMissingObjectLink,
		Detail: fmt.Sprintf("missing object link %d", index),
		Value:  index,
	}
}

// UnexpectedKind is returned when one value kind was required but another
// tag was found
func UnexpectedKind(expected, actual byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnexpectedKind,
		Detail: fmt.Sprintf("unexpected value kind, expected 0x%02x but got 0x%02x", expected, actual),
		Value:  actual,
	}
}

// NotAnObject is returned when instance variables are attached to a value
// kind that cannot carry them
func NotAnObject(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotAnObject,
		Detail: "not an object",
	}
}

// DuplicateIVar creates a duplicate instance-variable name error
func DuplicateIVar(phase Phase, name []byte) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDuplicateIVar,
		Detail: fmt.Sprintf("duplicate instance variable %q", name),
		Value:  string(name),
	}
}

// DepthExceeded creates a nesting depth limit error
func DepthExceeded(phase Phase, limit int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDepthExceeded,
		Detail: fmt.Sprintf("value nesting exceeds depth limit %d", limit),
	}
}

// TypeMismatch creates a type mismatch error for the convert layer
func TypeMismatch(path []string, goType, valueKind string) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Detail: fmt.Sprintf("cannot convert %s value", valueKind),
	}
}

// NilPointer creates a nil pointer error
func NilPointer(path []string, goType string) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindNilPointer,
		Path:   path,
		GoType: goType,
		Detail: "nil pointer",
	}
}

// FieldMissing creates a missing field error
func FieldMissing(path []string, fieldName string) *Error {
	return &Error{
		Phase:  PhaseConvert,
		Kind:   KindFieldMissing,
		Path:   path,
		Detail: fmt.Sprintf("no struct field for instance variable %q", fieldName),
	}
}

// Cycle is returned when a cyclic value graph reaches a representation that
// cannot express sharing
func Cycle(phase Phase, path []string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCycle,
		Path:   path,
		Detail: "cyclic value",
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}
