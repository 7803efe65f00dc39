// Package engineerr enumerates the error kinds the query engine raises
// and wraps them with the operation that failed, the Go analogue of an
// explicit error enum.
package engineerr

import (
	"errors"
	"fmt"
)

// Kind is one of the error kinds of the engine's error handling design.
type Kind string

const (
	InvalidConfig   Kind = "invalid_config"
	InvalidArgument Kind = "invalid_argument"
	SchemaMismatch  Kind = "schema_mismatch"
	StorageError    Kind = "storage_error"
	BusError        Kind = "bus_error"
	Exception       Kind = "exception"
)

// Error carries a Kind alongside the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a Kind-tagged error with no wrapped cause.
func New(kind Kind, op string) error {
	return &Error{Kind: kind, Op: op}
}

// Wrap tags err with kind and the failing operation.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// As reports whether err carries the given Kind.
func As(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to Exception for
// errors the engine didn't tag itself (the catch-all per the error
// handling design).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Exception
}

// ResponseCode maps a Kind to the wire-level response error code.
// Only `exception` is reachable today; `expired`/`cancelled` are
// reserved codes the engine never produces (see Open Questions).
func ResponseCode(kind Kind) string {
	switch kind {
	default:
		return "exception"
	}
}
