package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound reports a read, update or delete against an identifier that
// is not present in the table.
var ErrNotFound = errors.New("record not found")

// FieldErrors collects validation messages keyed by the offending input
// field. It is always produced before any row is written.
type FieldErrors map[string][]string

// Add appends a message for a field.
func (e FieldErrors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// OrNil returns the map as an error, or nil when no message was recorded.
func (e FieldErrors) OrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(e))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// DuplicateIDError reports a client-supplied identifier that already
// exists in the target table.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("identifier %q already exists", e.ID)
}

// ReferenceError reports a declared parent identifier that does not exist
// in its table. It is a client error, not a server fault.
type ReferenceError struct {
	Field string
	ID    string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s %q does not exist", e.Field, e.ID)
}

// storageError wraps an unexpected persistence failure so handlers can
// report it generically while the detail stays in the logs.
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w", op, err)
}
