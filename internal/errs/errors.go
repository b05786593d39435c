// Package errs provides the unified error type used across all of dbpool.
//
// Every status the engine hands back to a caller is an *errs.Error whose Kind
// tells the caller what went wrong without inspecting driver-specific codes:
// no connection was available, the query failed, or the connection itself is
// no longer usable.
//
// Usage:
//
//	// In the engine — wrap a classified driver error:
//	return errs.Wrap(errs.ErrKindLinkFailure, "execute failed", driverErr)
//
//	// In a caller — decide what to do with the handle:
//	if errs.IsLinkFailure(err) {
//	    pool.Discard(h)
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing driver-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindConnectionFailed         // a handle could not be set up
	ErrKindLinkFailure              // the connection is unusable (critical driver error)
	ErrKindQueryFailed              // script-level or data error (normal driver error)
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPoolExhausted            // admission rejected: pool at its maximum
	ErrKindPoolClosed               // pool already finalized
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindLinkFailure:
		return "link_failure"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPoolExhausted:
		return "pool_exhausted"
	case ErrKindPoolClosed:
		return "pool_closed"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all dbpool subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsConnectionFailed reports whether err is a handle setup failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsLinkFailure reports whether err means the connection behind a handle
// can no longer be trusted. Such a handle must not go back to its pool.
func IsLinkFailure(err error) bool {
	return KindOf(err) == ErrKindLinkFailure
}

// IsQueryFailed reports whether err is a script or data error on an
// otherwise healthy connection.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPoolExhausted reports whether a pool refused to create another handle.
func IsPoolExhausted(err error) bool {
	return KindOf(err) == ErrKindPoolExhausted
}

// IsPoolClosed reports whether the pool was already finalized.
func IsPoolClosed(err error) bool {
	return KindOf(err) == ErrKindPoolClosed
}

// IsNoConnection reports whether err means no handle could be handed out,
// either because of admission control or because the pool is closed.
func IsNoConnection(err error) bool {
	k := KindOf(err)
	return k == ErrKindPoolExhausted || k == ErrKindPoolClosed
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
