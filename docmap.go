package docmap

import (
	"log/slog"

	"github.com/aretw0/docmap/internal/platform"
	"github.com/aretw0/docmap/pkg/core"
	"github.com/aretw0/docmap/pkg/document"
	"github.com/aretw0/docmap/pkg/invitation"
	"github.com/aretw0/docmap/pkg/mapping"
)

// --- Types ---

// Store is a public alias for an opened backend and its repositories.
type Store = platform.Store

// Record is the raw unit a Backend persists.
type Record = core.Record

// Backend is the storage port every adapter implements.
type Backend = core.Backend

// Mapper converts between a domain entity and its document.
type Mapper[D core.AggregateRoot, Doc core.DocumentRoot] = core.Mapper[D, Doc]

// Invitation is the domain entity shipped with the library.
type Invitation = invitation.Invitation

// InvitationRepository is the narrow repository callers of invitations depend on.
type InvitationRepository = invitation.Repository

// --- Configuration ---

// Option defines a functional option for opening a store.
type Option = platform.Option

// Adapter names.
const (
	AdapterFS     = platform.AdapterFS
	AdapterMemory = platform.AdapterMemory
	AdapterSQLite = platform.AdapterSQLite
	AdapterRedis  = platform.AdapterRedis
)

// WithAdapter selects the storage adapter by name.
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithBackend injects a ready backend, bypassing adapter selection.
func WithBackend(b Backend) Option {
	return platform.WithBackend(b)
}

// WithLogger sets the logger for the backend and the repositories.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithReadOnly rejects every save.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithCreateOnly rejects saves for IDs that already exist.
func WithCreateOnly(enabled bool) Option {
	return platform.WithCreateOnly(enabled)
}

// WithMustExist ensures the fs directory already exists.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithSystemDir sets the hidden directory name the fs adapter skips (e.g. ".docmap").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithFormat sets the fs file format by extension.
func WithFormat(ext string) Option {
	return platform.WithFormat(ext)
}

// WithStrict keeps numbers as json.Number in the fs adapter.
func WithStrict(strict bool) Option {
	return platform.WithStrict(strict)
}

// WithRedisAuth sets the Redis password and database number.
func WithRedisAuth(password string, db int) Option {
	return platform.WithRedisAuth(password, db)
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return platform.WithKeyPrefix(prefix)
}

// --- Factory ---

// Open opens a store at uri.
func Open(uri string, opts ...Option) (*Store, error) {
	return platform.Open(uri, opts...)
}

// OpenInvitationRepository opens a store and returns its invitation repository.
func OpenInvitationRepository(uri string, opts ...Option) (InvitationRepository, error) {
	store, err := platform.Open(uri, opts...)
	if err != nil {
		return nil, err
	}
	return store.Invitations, nil
}

// NewInvitationRepository wires an invitation repository over an existing backend.
func NewInvitationRepository(backend Backend, opts ...mapping.Option) InvitationRepository {
	return platform.NewInvitationRepository(backend, opts...)
}

// --- Generic Factories ---

// NewDocumentRepository creates a document repository for Doc over backend.
func NewDocumentRepository[Doc core.DocumentRoot](backend Backend) *document.Repository[Doc] {
	return document.NewRepository[Doc](backend)
}

// NewMappingRepository composes a mapping repository for any entity pair.
func NewMappingRepository[D core.AggregateRoot, Doc core.DocumentRoot](backend Backend, mapper Mapper[D, Doc], opts ...mapping.Option) *mapping.Repository[D, Doc] {
	return mapping.New[D, Doc](document.NewRepository[Doc](backend), mapper, opts...)
}

// --- Utils ---

// FindRoot looks upwards from startDir for a directory containing systemDir.
func FindRoot(startDir, systemDir string) (string, error) {
	return platform.FindRoot(startDir, systemDir)
}
