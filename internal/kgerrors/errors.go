// Package kgerrors defines the typed error kinds shared by every component:
// the knowledge graph, vector index, relational store, clusterer, query
// engine, bandit core, matching pipeline and feedback loop all return
// *Error rather than raising, so a caller never has to guess what kind of
// failure it is looking at.
package kgerrors

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a failure.
type Kind string

const (
	// NotFound means the requested entity does not exist, or exists in a
	// different tenant (TenantMismatch collapses into this kind externally
	// so lookups never leak cross-tenant existence).
	NotFound Kind = "NOT_FOUND"

	// TenantMismatch is NotFound's internal twin: raised only where the
	// caller needs to distinguish "doesn't exist" from "exists, wrong
	// tenant" for logging. Callers outside the component should treat it
	// identically to NotFound.
	TenantMismatch Kind = "TENANT_MISMATCH"

	// Timeout means an external call (vector index, LLM, relational store)
	// exceeded its deadline. Hybrid search and feedback parsing recover
	// from this locally via a documented fallback; other callers surface it.
	Timeout Kind = "TIMEOUT"

	// TransportError means an external dependency call failed for a reason
	// other than a timeout (connection refused, malformed response, etc).
	TransportError Kind = "TRANSPORT_ERROR"

	// InvariantViolation means the caller broke a documented precondition
	// (e.g. assign_one before cluster_candidates). This is a programmer
	// error with no local recovery; it is always surfaced.
	InvariantViolation Kind = "INVARIANT_VIOLATION"

	// ValidationError means the input itself was malformed.
	ValidationError Kind = "VALIDATION_ERROR"
)

// Error is the typed error returned by every component boundary.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind around a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var kgErr *Error
	if errors.As(err, &kgErr) {
		return kgErr.Kind == kind
	}
	return false
}

// GetKind extracts the Kind from err, defaulting to TransportError for
// errors that were not produced through this package (e.g. a raw driver
// error that escaped a repository's mapping).
func GetKind(err error) Kind {
	var kgErr *Error
	if errors.As(err, &kgErr) {
		return kgErr.Kind
	}
	return TransportError
}
