// Package errs defines the classified error taxonomy of the
// finalized state store (spec §7): ConfigMissing, IoError, NotFound,
// FormatError, and Invariant. Every error the store returns across a
// package boundary carries one of these kinds, so callers can branch
// on classification without string-matching messages.
//
// Built on cockroachdb/errors, the error-handling library already
// paired with cockroachdb/pebble in this module's dependency graph,
// so engine errors keep their stack traces and can still be
// inspected with errors.Is/errors.As after being reclassified.
package errs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind classifies why an operation failed.
type Kind int

const (
	// Unspecified is the zero value; no store error should carry it.
	// GetKind returns it for errors this package did not produce.
	Unspecified Kind = iota

	// ConfigMissing indicates required configuration — such as the
	// cache directory — was not supplied. Fatal at startup.
	ConfigMissing

	// IoError indicates the underlying engine failed a read or batch
	// apply. Propagated to the caller unchanged; never retried here.
	IoError

	// NotFound indicates a requested hash, height, or tip is absent.
	// Callers translate this into a typed negative result where the
	// API permits (Depth(None), an empty locator); otherwise it
	// surfaces as-is.
	NotFound

	// FormatError indicates deserialization failed: database
	// corruption or a version mismatch. Fatal to the current
	// operation; never auto-recovered.
	FormatError

	// Invariant indicates a "must not happen" condition, such as a
	// commitment tree missing below the tip height, or a hole in the
	// indexed chain. Intended to crash the process in debug builds
	// and be reported with diagnostic context in release builds.
	Invariant
)

func (k Kind) String() string {
	switch k {
	case ConfigMissing:
		return "ConfigMissing"
	case IoError:
		return "IoError"
	case NotFound:
		return "NotFound"
	case FormatError:
		return "FormatError"
	case Invariant:
		return "Invariant"
	default:
		return "Unspecified"
	}
}

// storeError is the opaque boxed error type the store returns: a
// human-readable message plus a classification tag.
type storeError struct {
	kind Kind
	err  error
}

func (e *storeError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.err)
}

func (e *storeError) Unwrap() error { return e.err }

// New creates a classified error with the given message.
func New(kind Kind, msg string) error {
	return &storeError{kind: kind, err: errors.New(msg)}
}

// Newf creates a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &storeError{kind: kind, err: errors.Newf(format, args...)}
}

// Wrap classifies an existing error, preserving it for errors.Is/As
// and keeping any stack trace cockroachdb/errors already attached.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &storeError{kind: kind, err: errors.Wrap(err, msg)}
}

// Wrapf classifies an existing error with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &storeError{kind: kind, err: errors.Wrapf(err, format, args...)}
}

// GetKind returns the classification tag of err, or Unspecified if
// err was not produced by this package.
func GetKind(err error) Kind {
	var se *storeError
	if errors.As(err, &se) {
		return se.kind
	}
	return Unspecified
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
