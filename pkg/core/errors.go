package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrMalformedIdentifier is matched by errors raised when a stored identity
	// cannot be parsed back into its domain identifier type.
	ErrMalformedIdentifier = errors.New("malformed identifier")

	// ErrPersistence is matched by every failure surfaced from a document
	// repository or backend write.
	ErrPersistence = errors.New("persistence failure")

	// ErrMissingID rejects a document whose identity is empty.
	ErrMissingID = errors.New("document has no ID")

	// ErrReadOnly is returned by backends opened in read-only mode.
	ErrReadOnly = errors.New("backend is in read-only mode")

	// ErrNotFound reports a lookup of an ID the backend does not hold.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by create-only backends when the ID already exists.
	ErrConflict = errors.New("record already exists")
)

// MalformedIdentifierError reports an identity field that is not a valid
// encoding of the domain identifier.
type MalformedIdentifierError struct {
	Field string
	Value string
	Err   error
}

func (e *MalformedIdentifierError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed identifier in %s: %q", e.Field, e.Value)
	}
	return fmt.Sprintf("malformed identifier in %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *MalformedIdentifierError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedIdentifier.
func (e *MalformedIdentifierError) Is(target error) bool {
	return target == ErrMalformedIdentifier
}

// PersistenceError reports a backend that rejected or could not complete an
// operation. Err holds the backend cause (ErrReadOnly, ErrConflict, an I/O or
// network error).
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is reports whether target is ErrPersistence.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Persistence wraps err as a PersistenceError unless it already is one.
// A nil err yields nil.
func Persistence(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, ID: id, Err: err}
}
