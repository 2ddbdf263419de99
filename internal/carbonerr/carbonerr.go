// Package carbonerr defines the error-kind taxonomy shared by every public
// operation in the string dictionary and Carbon record subsystems.
package carbonerr

import "fmt"

// Kind classifies a failure the way the rest of the module reports it.
// InternalInvariant is the only kind that is not returned to a caller: it is
// raised via panic, since it signals programmer error rather than bad input.
type Kind int

const (
	InvalidArgument Kind = iota
	AllocationFailed
	CapacityExceeded
	IndexOutOfRange
	TypeMismatch
	UnsupportedStrategy
	MalformedPath
	NotImplemented
	InternalInvariant
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case AllocationFailed:
		return "allocation_failed"
	case CapacityExceeded:
		return "capacity_exceeded"
	case IndexOutOfRange:
		return "index_out_of_range"
	case TypeMismatch:
		return "type_mismatch"
	case UnsupportedStrategy:
		return "unsupported_strategy"
	case MalformedPath:
		return "malformed_path"
	case NotImplemented:
		return "not_implemented"
	case InternalInvariant:
		return "internal_invariant"
	default:
		return "unknown"
	}
}

// Error is the error type every public operation in this module returns.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for the given operation and kind.
func New(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg}
}

// Wrap builds an *Error carrying an underlying cause.
func Wrap(op string, kind Kind, msg string, err error) *Error {
	return &Error{Op: op, Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err (or any error it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	for err != nil {
		if ce, ok := err.(*Error); ok {
			return ce.Kind == k
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Panic raises an InternalInvariant failure. Invariant violations indicate
// programmer error (corrupt freelist, capacity mismatch) and are not
// recoverable through the normal error-return path.
func Panic(op, msg string) {
	panic(New(op, InternalInvariant, msg))
}
