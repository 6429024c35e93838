package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// ErrorKind is the closed set of domain error categories the store can
// report. Calling code switches on Kind; anything the store cannot classify
// is returned as-is, never swallowed.
type ErrorKind string

const (
	// KindAlreadyExists marks uniqueness conflicts: duplicate work source
	// image URL or duplicate (work, destination) pairing.
	KindAlreadyExists ErrorKind = "already_exists"

	// KindRequiresSeries marks a submission insert against a destination
	// that tags series when the work has no series.
	KindRequiresSeries ErrorKind = "requires_series"

	// KindRequiresFlair marks a submission insert with no flair override
	// against a destination that requires one and has no default.
	KindRequiresFlair ErrorKind = "requires_flair"

	// KindRequiresTag marks a submission insert with no custom tag against
	// a destination that requires one.
	KindRequiresTag ErrorKind = "requires_tag"

	// KindUnknownDestination marks a reference to an unregistered
	// destination name.
	KindUnknownDestination ErrorKind = "unknown_destination"

	// KindAlreadyUploaded marks a second upload attempt for a work whose
	// hosted image is already recorded.
	KindAlreadyUploaded ErrorKind = "already_uploaded"

	// KindNotFound marks a lookup of a row that does not exist.
	KindNotFound ErrorKind = "not_found"
)

// DomainError is a classified store error. ExistingID is set for
// KindAlreadyExists conflicts where the conflicting row is known, so the
// caller can report the existing work or submission instead of the failed
// insert.
type DomainError struct {
	Kind       ErrorKind
	Message    string
	ExistingID int64
	Err        error
}

func (e *DomainError) Error() string {
	if e.ExistingID != 0 {
		return fmt.Sprintf("%s: %s (existing id %d)", e.Kind, e.Message, e.ExistingID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// KindOf extracts the domain error kind from an error chain.
// Returns "" when the error is not a classified store error.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err carries the given domain kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

// triggerKinds maps the RAISE(ABORT, ...) identifiers from schema.sql to
// domain kinds. The "errant:" prefix keeps them distinguishable from any
// other trigger text SQLite may produce.
var triggerKinds = map[string]ErrorKind{
	"errant: requires_series": KindRequiresSeries,
	"errant: requires_flair":  KindRequiresFlair,
	"errant: requires_tag":    KindRequiresTag,
}

// classify translates a low-level sqlite error into a DomainError.
// Unrecognized errors are returned unchanged so callers re-raise them
// rather than mistaking an infrastructure failure for a policy violation.
func classify(err error, message string) error {
	if err == nil {
		return nil
	}

	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return err
	}

	switch serr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return &DomainError{Kind: KindAlreadyExists, Message: message, Err: err}

	case sqlite3.ErrConstraintTrigger:
		for ident, kind := range triggerKinds {
			if strings.Contains(serr.Error(), ident) {
				return &DomainError{Kind: kind, Message: message, Err: err}
			}
		}
	}

	return err
}
