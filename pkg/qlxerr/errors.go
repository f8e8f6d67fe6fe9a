// Package qlxerr defines the HFP pipeline's error taxonomy: a small closed
// set of kinds surfaced to callers, never retried and never silently
// swallowed by the core.
package qlxerr

import "fmt"

// Kind is a closed taxonomy of failure categories the core can raise.
type Kind int

const (
	// InputError marks a malformed seed, non-finite input, array length
	// mismatch, or unknown enum value (quant mode, whitening, sig alg).
	InputError Kind = iota
	// EncodingError marks a canonicalization failure: non-finite float,
	// duplicate key, or non-UTF-8 string.
	EncodingError
	// SignatureError marks a missing key, wrong key length, hex decode
	// failure, or verification mismatch.
	SignatureError
	// StatTestWarning marks a statistical test that returned a
	// short-input note and p=0; carried on the result, never returned
	// as an error.
	StatTestWarning
	// ResourceLimit marks a KDF refusing requested parameters.
	ResourceLimit
)

func (k Kind) String() string {
	switch k {
	case InputError:
		return "InputError"
	case EncodingError:
		return "EncodingError"
	case SignatureError:
		return "SignatureError"
	case StatTestWarning:
		return "StatTestWarning"
	case ResourceLimit:
		return "ResourceLimit"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is the concrete error type raised by every package in this module.
type Error struct {
	Kind Kind   // failure category
	Op   string // operation that failed, e.g. "canonjson.Bytes"
	Msg  string // human-readable detail
	Err  error  // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is comparisons against a bare Kind sentinel created
// via New(kind, "", "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an Error with no wrapped cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an Error that carries an underlying cause.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Input is a convenience constructor for the common InputError case.
func Input(op, format string, args ...any) *Error {
	return New(InputError, op, fmt.Sprintf(format, args...))
}

// Encoding is a convenience constructor for the common EncodingError case.
func Encoding(op, format string, args ...any) *Error {
	return New(EncodingError, op, fmt.Sprintf(format, args...))
}

// Signature is a convenience constructor for the common SignatureError case.
func Signature(op, format string, args ...any) *Error {
	return New(SignatureError, op, fmt.Sprintf(format, args...))
}

// Resource is a convenience constructor for the common ResourceLimit case.
func Resource(op, format string, args ...any) *Error {
	return New(ResourceLimit, op, fmt.Sprintf(format, args...))
}
