package core

import "context"

// Backend is the storage port. Save accepts a record and returns the record as
// stored; implementations may fill in backend-generated fields.
type Backend interface {
	Save(ctx context.Context, rec Record) (Record, error)
}

// Getter is implemented by backends that can read a single record back.
type Getter interface {
	Get(ctx context.Context, id string) (Record, error)
}

// Lister is implemented by backends that can enumerate their records.
type Lister interface {
	List(ctx context.Context) ([]Record, error)
}

// Initializer is implemented by backends that need setup before the first
// Save (create directories, apply schema, ping a server).
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Watchable is implemented by backends that can report changes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// DocumentRepository saves document entities. It knows nothing about domain
// types or mapping.
type DocumentRepository[Doc DocumentRoot] interface {
	Save(ctx context.Context, doc Doc) (Doc, error)
}

// MappingRepository saves domain entities by way of their document form.
type MappingRepository[D AggregateRoot, Doc DocumentRoot] interface {
	Save(ctx context.Context, domain D) (D, error)
}
