// Package core defines the ports of docmap: the entity markers, the mapper and
// repository contracts, and the raw record shape that storage backends exchange.
package core

import "fmt"

// AggregateRoot marks a domain entity. It carries no behaviour; it exists so that
// generic components can name the role of their type parameters.
type AggregateRoot interface{}

// DocumentRoot marks a document entity: the persistence-shaped twin of an
// aggregate root. Its identity is always text.
type DocumentRoot interface {
	DocumentID() string
}

// Fields holds the flat, string-keyed attributes of a stored record.
type Fields map[string]any

// Record is the unit a Backend stores. It is agnostic to the storage format
// (JSON file, YAML file, SQL row, Redis value).
type Record struct {
	ID     string
	Fields Fields
}

// Clone returns a copy of the record whose Fields map can be mutated freely.
func (r Record) Clone() Record {
	out := Record{ID: r.ID, Fields: make(Fields, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// EventType represents the type of change observed in a backend.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a stored record.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer (and lifecycle.Event).
func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}
