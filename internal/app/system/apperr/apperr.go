// Package apperr defines the error taxonomy shared by the dispatch engine
// and its HTTP surface.
//
// Every failure a handler can see falls into one of five kinds:
//
//   - InvalidArgument: malformed or out-of-enum input, rejected before any
//     mutation.
//   - NotFound: a referenced report/employee/responder is absent; no partial
//     mutation occurred.
//   - Conflict: a concurrent state transition won the race; the caller may
//     retry.
//   - CollaboratorUnavailable: an external classifier or travel-time service
//     is down. Callers of this package recover these locally with a
//     documented fallback, so this kind rarely reaches a handler.
//   - Internal: unexpected persistence failure, surfaced generically.
//
// Use the constructors and test with errors.Is against the exported
// sentinels, e.g. errors.Is(err, apperr.ErrNotFound).
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Constructed errors wrap one of these, so errors.Is works
// across wrapping.
var (
	ErrInvalidArgument         = errors.New("invalid argument")
	ErrNotFound                = errors.New("not found")
	ErrConflict                = errors.New("conflict")
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	ErrInternal                = errors.New("internal error")
)

// Error carries a kind sentinel, an optional cause, and a human-readable
// message.
type Error struct {
	kind  error
	cause error
	msg   string
}

func (e *Error) Error() string { return e.msg }

// Unwrap exposes the kind (and cause, when present) so both
// errors.Is(err, apperr.ErrNotFound) and errors.Is(err, cause) match.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func newf(kind error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// InvalidArgument builds an InvalidArgument error.
func InvalidArgument(format string, args ...any) error {
	return newf(ErrInvalidArgument, format, args...)
}

// NotFound builds a NotFound error.
func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

// Conflict builds a Conflict error.
func Conflict(format string, args ...any) error {
	return newf(ErrConflict, format, args...)
}

// CollaboratorUnavailable builds a CollaboratorUnavailable error.
func CollaboratorUnavailable(format string, args ...any) error {
	return newf(ErrCollaboratorUnavailable, format, args...)
}

// Internal wraps an unexpected error, keeping the cause for logs while the
// message shown to callers stays generic.
func Internal(cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{kind: ErrInternal, cause: cause, msg: "internal error: " + cause.Error()}
}
