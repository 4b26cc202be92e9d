package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// UnresolvedReference names a left/right-hand-side reference in the schema
// document that never resolved to a schema atom or a registered concept.
type UnresolvedReference struct {
	LeafName           string
	FullyQualifiedName string
}

// LoadError is a fatal schema-load failure (spec §7, category 1): missing
// library, unresolved reference, or unexpected keyword. Unresolved-reference
// failures carry the complete list of offenders.
type LoadError struct {
	Reason      string
	Unresolved  []UnresolvedReference
	cause       error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason)
	for _, u := range e.Unresolved {
		fmt.Fprintf(&b, "\n  unresolved: %q (as %q)", u.LeafName, u.FullyQualifiedName)
	}
	return b.String()
}

func (e *LoadError) Unwrap() error { return e.cause }

func newLoadError(reason string) error {
	return errors.WithStack(&LoadError{Reason: reason})
}

func newLoadErrorf(format string, args ...interface{}) error {
	return errors.WithStack(&LoadError{Reason: fmt.Sprintf(format, args...)})
}

func newUnresolvedReferencesError(refs []UnresolvedReference) error {
	return errors.WithStack(&LoadError{
		Reason:     "unresolved schema references",
		Unresolved: refs,
	})
}
