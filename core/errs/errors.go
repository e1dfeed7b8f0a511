// Package errs defines the structured error kinds surfaced by the scheduling
// core and the classification of raw store failures into them.
package errs

import (
	"errors"
	"fmt"

	"github.com/4Lajf/grafikonator-6000/core/store"
)

// Kind identifies the category of a failure.
type Kind int

const (
	// KindInternal covers anything unclassified.
	KindInternal Kind = iota
	// KindNotFound means a referenced record does not exist.
	KindNotFound
	// KindNoCandidate means no individual under the unavailable tier exists
	// for a slot.
	KindNoCandidate
	// KindDuplicate means a store uniqueness constraint was violated.
	KindDuplicate
	// KindForbidden means the store denied the operation.
	KindForbidden
	// KindUnauthenticated means a session or credential failure surfaced
	// through a store call.
	KindUnauthenticated
	// KindStore covers generic or transient store failures.
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindNoCandidate:
		return "no_candidate_available"
	case KindDuplicate:
		return "duplicate_resource"
	case KindForbidden:
		return "forbidden"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindStore:
		return "store_error"
	default:
		return "internal_error"
	}
}

// public holds the generic per-kind statements shown when detail redaction is
// on.
var public = map[Kind]string{
	KindInternal:        "an unexpected error occurred",
	KindNotFound:        "resource not found",
	KindNoCandidate:     "no available person found for this time slot",
	KindDuplicate:       "resource already exists",
	KindForbidden:       "insufficient permissions",
	KindUnauthenticated: "authentication required",
	KindStore:           "store operation failed",
}

// Error carries a failure kind together with its message and cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Public returns the message safe to show outside the service. With detail
// enabled the full message is returned, otherwise the generic statement for
// the kind.
func (e *Error) Public(detail bool) string {
	if detail {
		return e.Message
	}
	return public[e.Kind]
}

// New creates an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error with the given kind wrapping a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from err, classifying raw errors on the way.
func KindOf(err error) Kind {
	return Classify(err).Kind
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return Classify(err).Kind == kind
}

// Classify maps an arbitrary failure to a structured Error. Typed errors
// pass through unchanged; store sentinels map to their kinds; anything else
// is treated as a generic store failure, mirroring the persistence boundary
// this package guards.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Wrap(KindNotFound, "resource not found", err)
	case errors.Is(err, store.ErrDuplicate):
		return Wrap(KindDuplicate, "resource already exists", err)
	case errors.Is(err, store.ErrForbidden):
		return Wrap(KindForbidden, "insufficient permissions", err)
	case errors.Is(err, store.ErrUnauthenticated):
		return Wrap(KindUnauthenticated, "authentication required", err)
	default:
		return Wrap(KindStore, "store operation failed", err)
	}
}
