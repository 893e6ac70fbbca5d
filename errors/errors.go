package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode    Phase = "encode"    // native Go to wire value
	PhaseDecode    Phase = "decode"    // wire value to native Go
	PhaseDispatch  Phase = "dispatch"  // request handling
	PhaseResolve   Phase = "resolve"   // name lookup
	PhaseCall      Phase = "call"      // function, method, constructor
	PhaseIterate   Phase = "iterate"   // iteration cursors
	PhaseTransport Phase = "transport" // line framing, stream state
)

// Kind categorizes the error
type Kind string

const (
	KindUnencodable      Kind = "unencodable"
	KindUnknownTag       Kind = "unknown_tag"
	KindInvalidData      Kind = "invalid_data"
	KindHandleNotFound   Kind = "handle_not_found"
	KindNameNotFound     Kind = "name_not_found"
	KindAttributeMissing Kind = "attribute_missing"
	KindTypeMismatch     Kind = "type_mismatch"
	KindArityMismatch    Kind = "arity_mismatch"
	KindNotCountable     Kind = "not_countable"
	KindNotIterable      Kind = "not_iterable"
	KindInvalidCursor    Kind = "invalid_cursor"
	KindNotInstantiable  Kind = "not_instantiable"
	KindRedefined        Kind = "redefined"
	KindConstruct        Kind = "construct_failed"
	KindThrown           Kind = "thrown"
	KindConnectionLost   Kind = "connection_lost"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Class  string // wire exception class override
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

// As delegates to the standard library so callers do not need a second
// errors import next to this package.
func As(err error, target any) bool {
	return stderrors.As(err, target)
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

// Class sets the wire exception class reported for this error
func (b *Builder) Class(name string) *Builder {
	b.err.Class = name
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

// Unencodable creates an encoding error naming the offending Go type
func Unencodable(goType string, value any) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindUnencodable,
		GoType: goType,
		Value:  value,
		Detail: fmt.Sprintf("cannot encode value of type %s", goType),
	}
}

// UnknownTag creates a decoding error for an unrecognized wire tag
func UnknownTag(tag string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownTag,
		Detail: fmt.Sprintf("unknown wire tag %q", tag),
	}
}

// HandleNotFound creates an error for a stale or forged handle. This
// indicates protocol misuse by the caller, not a recoverable condition.
func HandleNotFound(handle any) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindHandleNotFound,
		Value:  handle,
		Detail: fmt.Sprintf("no value for handle %v", handle),
	}
}

// NameNotFound creates an error for an unresolvable name
func NameNotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNameNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// AttributeMissing creates an error for a missing object property, kept
// distinct from generic runtime errors so the caller can tell "no such
// attribute" from "threw while computing it"
func AttributeMissing(class, name string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindAttributeMissing,
		Detail: fmt.Sprintf("%s has no property %q", class, name),
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, path []string, goType, want string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Path:   path,
		GoType: goType,
		Detail: fmt.Sprintf("want %s", want),
	}
}

// ArityMismatch creates an argument count error
func ArityMismatch(name string, want, got int) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindArityMismatch,
		Detail: fmt.Sprintf("%s takes %d argument(s), got %d", name, want, got),
	}
}

// NotCountable creates an error for count on an uncountable value
func NotCountable(goType string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindNotCountable,
		GoType: goType,
		Detail: "value is not countable",
	}
}

// NotIterable creates an error naming the type that cannot be iterated
func NotIterable(goType string) *Error {
	return &Error{
		Phase:  PhaseIterate,
		Kind:   KindNotIterable,
		GoType: goType,
		Detail: "value is not iterable",
	}
}

// InvalidCursor creates an error for nextIteration on a non-cursor handle
func InvalidCursor(handle any) *Error {
	return &Error{
		Phase:  PhaseIterate,
		Kind:   KindInvalidCursor,
		Value:  handle,
		Detail: fmt.Sprintf("handle %v is not an iteration cursor", handle),
	}
}

// Thrown wraps an exception raised by foreign (registered) code, carrying
// the class name reported on the wire
func Thrown(class, message string) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindThrown,
		Class:  class,
		Detail: message,
	}
}

// ConnectionLost creates the error that ends a session. It is never encoded
// as a response because there is no channel left to send one.
func ConnectionLost(cause error) *Error {
	return &Error{
		Phase:  PhaseTransport,
		Kind:   KindConnectionLost,
		Detail: "stream closed",
		Cause:  cause,
	}
}

// IsConnectionLost reports whether err ends the session rather than the
// single command that raised it.
func IsConnectionLost(err error) bool {
	var e *Error
	return As(err, &e) && e.Kind == KindConnectionLost
}

// ExceptionName maps an error to the exception class reported on the wire.
// Structured errors map per kind; anything else is a RuntimeError.
func ExceptionName(err error) string {
	var e *Error
	if !As(err, &e) {
		return "RuntimeError"
	}
	if e.Class != "" {
		return e.Class
	}
	switch e.Kind {
	case KindUnencodable:
		return "EncodingError"
	case KindUnknownTag, KindInvalidData:
		if e.Phase == PhaseEncode {
			return "EncodingError"
		}
		return "DecodingError"
	case KindHandleNotFound:
		return "HandleNotFoundError"
	case KindNameNotFound, KindRedefined:
		return "NameError"
	case KindAttributeMissing:
		return "AttributeError"
	case KindTypeMismatch, KindArityMismatch, KindNotCountable,
		KindNotIterable, KindInvalidCursor, KindNotInstantiable:
		return "TypeError"
	case KindConnectionLost:
		return "ConnectionError"
	default:
		return "RuntimeError"
	}
}

// Message returns the human-readable message carried on the wire for err.
// Structured errors use their detail; anything else uses Error().
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if As(err, &e) && e.Detail != "" {
		if e.Cause != nil {
			return e.Detail + ": " + e.Cause.Error()
		}
		return e.Detail
	}
	return err.Error()
}
