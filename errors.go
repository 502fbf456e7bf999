package corpus

import (
	"errors"
	"fmt"
)

// Kind categorizes an Error. The string values are wire-stable: they appear
// in rendered output, event payloads, and on-disk rows, and must not change.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindAlreadyExists       Kind = "already_exists"
	KindStorage             Kind = "storage_error"
	KindDecode              Kind = "decode_error"
	KindEncode              Kind = "encode_error"
	KindHashMismatch        Kind = "hash_mismatch"
	KindInvalidConfig       Kind = "invalid_config"
	KindValidation          Kind = "validation_error"
	KindObservationNotFound Kind = "observation_not_found"
)

// Error is the module's error type. Store, backend and observation
// operations report their failures as an *Error (possibly wrapping a cause
// from a driver or the OS). Context cancellation errors are returned
// unwrapped, and the constructors that open files or databases
// (sqlite.Open, objstore.OpenBolt) return plain wrapped errors.
type Error struct {
	Kind Kind   // category, wire-stable
	Op   string // operation tag, e.g. "metadata.get"
	Msg  string // human-readable detail
	Err  error  // wrapped cause, may be nil
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Msg)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an *Error with a formatted message.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// WrapErr wraps a cause under the given kind and operation tag.
// A nil cause yields nil, so call sites can wrap unconditionally.
func WrapErr(kind Kind, op string, cause error) error {
	if cause == nil {
		return nil
	}
	// Re-wrapping an *Error would bury the original kind; keep the inner one.
	var ce *Error
	if errors.As(cause, &ce) {
		return cause
	}
	return &Error{Kind: kind, Op: op, Err: cause}
}

// KindOf extracts the Kind of err, or "" when err is nil or foreign.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// IsNotFound reports whether err is a domain miss on the snapshot side.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsObservationNotFound reports whether err is a miss on the observation side.
func IsObservationNotFound(err error) bool { return KindOf(err) == KindObservationNotFound }
