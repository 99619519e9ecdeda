// Package mapping provides the generic mapping repository: it saves domain
// entities by converting them to documents, persisting them through a document
// repository, and converting the stored documents back.
package mapping

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/introspection"

	"github.com/aretw0/docmap/pkg/core"
)

// Repository composes one Mapper and one DocumentRepository for a single
// domain/document pair. Both references are fixed at construction, so a
// Repository is safe for concurrent use whenever its dependencies are.
type Repository[D core.AggregateRoot, Doc core.DocumentRoot] struct {
	docs   core.DocumentRepository[Doc]
	mapper core.Mapper[D, Doc]
	logger *slog.Logger
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger traces every stage of Save at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New binds a document repository and a mapper. The document type of both
// must match, which the compiler checks.
func New[D core.AggregateRoot, Doc core.DocumentRoot](docs core.DocumentRepository[Doc], mapper core.Mapper[D, Doc], opts ...Option) *Repository[D, Doc] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Repository[D, Doc]{
		docs:   docs,
		mapper: mapper,
		logger: o.logger,
	}
}

// Save maps domain to its document, saves the document, and maps the stored
// document back. The result is derived from what the document repository
// returned, not from the input. Errors are returned unchanged.
func (r *Repository[D, Doc]) Save(ctx context.Context, domain D) (D, error) {
	var zero D

	r.trace(ctx, "original", domain)
	doc := r.mapper.ToDocument(domain)
	r.trace(ctx, "mapped to document", doc)

	stored, err := r.docs.Save(ctx, doc)
	if err != nil {
		return zero, err
	}

	result, err := r.mapper.ToDomain(stored)
	if err != nil {
		return zero, err
	}
	r.trace(ctx, "document mapped back to root", result)
	return result, nil
}

func (r *Repository[D, Doc]) trace(ctx context.Context, stage string, v any) {
	if r.logger == nil {
		return
	}
	r.logger.DebugContext(ctx, stage, "entity", v)
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Mapper    string `json:"mapper"`
	Documents string `json:"documents"`
	Traced    bool   `json:"traced"`
}

// State implements introspection.Introspectable.
func (r *Repository[D, Doc]) State() any {
	docs := "document-repository"
	if comp, ok := r.docs.(introspection.Component); ok {
		docs = comp.ComponentType()
	}
	return RepositoryState{
		Mapper:    fmt.Sprintf("%T", r.mapper),
		Documents: docs,
		Traced:    r.logger != nil,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository[D, Doc]) ComponentType() string {
	return "mapping-repository"
}
