// Package memory provides an in-process core.Backend. It performs no durable
// persistence and is meant for tests, examples, and wiring checks.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/docmap/pkg/core"
)

// Backend stores records in a map guarded by a RWMutex.
type Backend struct {
	mu         sync.RWMutex
	records    map[string]core.Record
	readOnly   bool
	createOnly bool
	saves      int
}

// Option configures a Backend.
type Option func(*Backend)

// WithReadOnly makes Save fail with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(b *Backend) {
		b.readOnly = enabled
	}
}

// WithCreateOnly makes Save fail with core.ErrConflict when the ID exists.
func WithCreateOnly(enabled bool) Option {
	return func(b *Backend) {
		b.createOnly = enabled
	}
}

// WithRecords seeds the backend.
func WithRecords(recs ...core.Record) Option {
	return func(b *Backend) {
		for _, r := range recs {
			b.records[r.ID] = deepCopy(r)
		}
	}
}

// NewBackend creates an empty in-memory backend.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{records: make(map[string]core.Record)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Save stores a copy of rec and returns a copy of what was stored.
func (b *Backend) Save(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, core.Persistence("memory save", rec.ID, err)
	}
	if rec.ID == "" {
		return core.Record{}, core.Persistence("memory save", "", core.ErrMissingID)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readOnly {
		return core.Record{}, core.Persistence("memory save", rec.ID, core.ErrReadOnly)
	}
	if _, exists := b.records[rec.ID]; exists && b.createOnly {
		return core.Record{}, core.Persistence("memory save", rec.ID, core.ErrConflict)
	}

	stored := deepCopy(rec)
	b.records[rec.ID] = stored
	b.saves++
	return deepCopy(stored), nil
}

// Get returns the stored record for id.
func (b *Backend) Get(ctx context.Context, id string) (core.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[id]
	if !ok {
		return core.Record{}, core.ErrNotFound
	}
	return deepCopy(rec), nil
}

// List returns every record sorted by ID.
func (b *Backend) List(ctx context.Context) ([]core.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]core.Record, 0, len(b.records))
	for _, r := range b.records {
		out = append(out, deepCopy(r))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Len returns the number of stored records.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// BackendState exposes internal state for observability.
type BackendState struct {
	Records    int  `json:"records"`
	Saves      int  `json:"saves"`
	ReadOnly   bool `json:"read_only"`
	CreateOnly bool `json:"create_only"`
}

// State implements introspection.Introspectable.
func (b *Backend) State() any {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return BackendState{
		Records:    len(b.records),
		Saves:      b.saves,
		ReadOnly:   b.readOnly,
		CreateOnly: b.createOnly,
	}
}

// ComponentType implements introspection.Component.
func (b *Backend) ComponentType() string {
	return "memory-backend"
}

func deepCopy(rec core.Record) core.Record {
	out := core.Record{ID: rec.ID, Fields: make(core.Fields, len(rec.Fields))}
	for k, v := range rec.Fields {
		out.Fields[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, e := range val {
			m[k] = copyValue(e)
		}
		return m
	case core.Fields:
		m := make(core.Fields, len(val))
		for k, e := range val {
			m[k] = copyValue(e)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, e := range val {
			s[i] = copyValue(e)
		}
		return s
	default:
		return v
	}
}

var (
	_ core.Backend                 = (*Backend)(nil)
	_ core.Getter                  = (*Backend)(nil)
	_ core.Lister                  = (*Backend)(nil)
	_ introspection.Introspectable = (*Backend)(nil)
	_ introspection.Component      = (*Backend)(nil)
)
