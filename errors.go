package condarun

import (
	"errors"

	"github.com/dmora/condarun/internal/errfmt"
)

// ErrorKind classifies a dispatch failure.
type ErrorKind int

const (
	// KindSpawnFailure: the executable could not be started.
	KindSpawnFailure ErrorKind = iota + 1

	// KindDecodeFailure: captured output did not parse as JSON where a
	// document was expected. Raw carries the offending text.
	KindDecodeFailure

	// KindValidationFailure: a caller-level contract violation caught
	// before dispatch.
	KindValidationFailure

	// KindTransportFailure: connection or request errors after dispatch.
	KindTransportFailure

	// KindUnsupportedConfiguration: an unrecognized transport mode.
	KindUnsupportedConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindSpawnFailure:
		return "spawn failure"
	case KindDecodeFailure:
		return "decode failure"
	case KindValidationFailure:
		return "validation failure"
	case KindTransportFailure:
		return "transport failure"
	case KindUnsupportedConfiguration:
		return "unsupported configuration"
	default:
		return "unknown failure"
	}
}

// Sentinel errors for errors.Is matching by kind:
//
//	if errors.Is(err, condarun.ErrDecodeFailure) { ... }
var (
	ErrSpawnFailure             = &Error{Kind: KindSpawnFailure}
	ErrDecodeFailure            = &Error{Kind: KindDecodeFailure}
	ErrValidationFailure        = &Error{Kind: KindValidationFailure}
	ErrTransportFailure         = &Error{Kind: KindTransportFailure}
	ErrUnsupportedConfiguration = &Error{Kind: KindUnsupportedConfiguration}
)

// Error is the structured failure surfaced by every transport and facade.
// Err preserves the causing error, so consumers can errors.As through it
// (to *exec.Error, *json.SyntaxError, and so on).
type Error struct {
	Kind ErrorKind

	// Op names the failing operation (e.g. "install", "Env.create").
	Op string

	// Message is a human-readable description. May be empty when Err says it all.
	Message string

	// Raw is the offending text for decode failures, kept whole for
	// diagnostics. Error() renders a truncated copy.
	Raw string

	Err error
}

func (e *Error) Error() string {
	s := "condarun: "
	if e.Op != "" {
		s += e.Op + ": "
	}
	s += e.Kind.String()
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	if e.Raw != "" {
		s += ": raw output: " + errfmt.Snippet(e.Raw)
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind when target carries no message,
// which makes the package sentinels usable with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Op == "" && t.Err == nil
}

// KindOf extracts the kind from an error chain containing *Error.
// Returns (0, false) if the chain has no *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// ValidationError builds a KindValidationFailure error.
func ValidationError(op, message string) *Error {
	return &Error{Kind: KindValidationFailure, Op: op, Message: message}
}

// DecodeError builds a KindDecodeFailure error carrying the raw text.
func DecodeError(op string, raw string, cause error) *Error {
	return &Error{Kind: KindDecodeFailure, Op: op, Raw: raw, Err: cause}
}
