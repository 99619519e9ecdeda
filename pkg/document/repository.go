// Package document provides the generic document repository: it turns document
// entities into core.Record values for a Backend and decodes what the backend
// stored back into the document type.
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/docmap/pkg/core"
)

// DefaultIDField is the JSON field that carries the document identity.
const DefaultIDField = "id"

// Repository implements core.DocumentRepository for any document type whose
// fields are expressible as JSON.
type Repository[Doc core.DocumentRoot] struct {
	backend core.Backend
	idField string
}

// Option configures a Repository.
type Option func(*config)

type config struct {
	idField string
}

// WithIDField sets the JSON field name holding the identity (default "id").
// The field is lifted into core.Record.ID and removed from the stored fields.
func WithIDField(name string) Option {
	return func(c *config) {
		c.idField = name
	}
}

// NewRepository creates a document repository over backend.
func NewRepository[Doc core.DocumentRoot](backend core.Backend, opts ...Option) *Repository[Doc] {
	c := config{idField: DefaultIDField}
	for _, opt := range opts {
		opt(&c)
	}
	return &Repository[Doc]{backend: backend, idField: c.idField}
}

// Save persists doc and returns the document as the backend stored it.
//
// Workflow:
//  1. Encode doc into a core.Record (identity lifted out of the fields).
//  2. Delegate to the backend.
//  3. Decode the returned record into a new Doc.
//
// Every failure is a *core.PersistenceError.
func (r *Repository[Doc]) Save(ctx context.Context, doc Doc) (Doc, error) {
	var zero Doc

	rec, err := r.encode(doc)
	if err != nil {
		return zero, core.Persistence("save", doc.DocumentID(), err)
	}

	stored, err := r.backend.Save(ctx, rec)
	if err != nil {
		return zero, core.Persistence("save", rec.ID, err)
	}

	out, err := r.decode(stored)
	if err != nil {
		return zero, core.Persistence("save", stored.ID, err)
	}
	return out, nil
}

func (r *Repository[Doc]) encode(doc Doc) (core.Record, error) {
	id := doc.DocumentID()
	if id == "" {
		return core.Record{}, core.ErrMissingID
	}

	// Round-trip through JSON so the document's tags decide the field names.
	data, err := json.Marshal(doc)
	if err != nil {
		return core.Record{}, fmt.Errorf("failed to marshal document: %w", err)
	}
	// Numbers stay json.Number so integers beyond 2^53 survive.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields core.Fields
	if err := dec.Decode(&fields); err != nil {
		return core.Record{}, fmt.Errorf("failed to convert document to fields: %w", err)
	}
	delete(fields, r.idField)

	return core.Record{ID: id, Fields: fields}, nil
}

func (r *Repository[Doc]) decode(rec core.Record) (Doc, error) {
	var doc Doc

	fields := make(core.Fields, len(rec.Fields)+1)
	for k, v := range rec.Fields {
		fields[k] = v
	}
	fields[r.idField] = rec.ID

	data, err := json.Marshal(fields)
	if err != nil {
		return doc, fmt.Errorf("stored fields marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("unmarshal into %T failed: %w", doc, err)
	}
	return doc, nil
}
