package platform

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/docmap/pkg/adapters/fs"
	"github.com/aretw0/docmap/pkg/adapters/memory"
	"github.com/aretw0/docmap/pkg/adapters/redis"
	"github.com/aretw0/docmap/pkg/adapters/sqlite"
	"github.com/aretw0/docmap/pkg/core"
	"github.com/aretw0/docmap/pkg/document"
	"github.com/aretw0/docmap/pkg/invitation"
	"github.com/aretw0/docmap/pkg/mapping"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterMemory = "memory"
	AdapterSQLite = "sqlite"
	AdapterRedis  = "redis"
)

// Store is the composition root: one backend and the per-entity repositories
// wired on top of it.
type Store struct {
	Backend     core.Backend
	Invitations invitation.Repository
}

// Open opens the backend described by uri and opts and wires the entity
// repositories. The uri is adapter-specific: a directory for fs, a database
// file for sqlite, host:port for redis, ignored for memory.
func Open(uri string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	backend, err := openBackend(uri, o)
	if err != nil {
		return nil, err
	}

	var mopts []mapping.Option
	if o.logger != nil {
		mopts = append(mopts, mapping.WithLogger(o.logger))
	}

	return &Store{
		Backend:     backend,
		Invitations: NewInvitationRepository(backend, mopts...),
	}, nil
}

// NewInvitationRepository wires backend → document repository → mapping
// repository for invitations.
func NewInvitationRepository(backend core.Backend, opts ...mapping.Option) invitation.Repository {
	return invitation.NewRepository(document.NewRepository[invitation.Document](backend), opts...)
}

// Close releases the backend if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.Backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Lister returns the backend as a core.Lister when supported.
func (s *Store) Lister() (core.Lister, error) {
	l, ok := s.Backend.(core.Lister)
	if !ok {
		return nil, errors.New("backend does not support listing")
	}
	return l, nil
}

// Watch observes changes in the backend if supported.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	w, ok := s.Backend.(core.Watchable)
	if !ok {
		return nil, errors.New("backend does not support watching")
	}
	return w.Watch(ctx, pattern)
}

func openBackend(uri string, o *options) (core.Backend, error) {
	if o.backend != nil {
		return o.backend, nil
	}

	var backend core.Backend
	switch o.adapter {
	case AdapterFS:
		if uri == "" {
			return nil, fmt.Errorf("fs adapter requires a directory")
		}
		backend = fs.NewBackend(fs.Config{
			Path:         uri,
			Format:       o.format,
			SystemDir:    o.systemDir,
			MustExist:    o.mustExist,
			ReadOnly:     o.readOnly,
			Strict:       o.strict,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})
	case AdapterMemory:
		backend = memory.NewBackend(memory.WithReadOnly(o.readOnly), memory.WithCreateOnly(o.createOnly))
	case AdapterSQLite:
		b, err := sqlite.Open(sqlite.Config{Path: uri, CreateOnly: o.createOnly, ReadOnly: o.readOnly, Logger: o.logger})
		if err != nil {
			return nil, err
		}
		backend = b
	case AdapterRedis:
		backend = redis.NewBackend(redis.Config{
			Addr:       uri,
			Password:   o.password,
			DB:         o.redisDB,
			KeyPrefix:  o.keyPrefix,
			CreateOnly: o.createOnly,
			ReadOnly:   o.readOnly,
			Logger:     o.logger,
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}

	if initializer, ok := backend.(core.Initializer); ok {
		if err := initializer.Initialize(context.Background()); err != nil {
			if c, ok := backend.(io.Closer); ok {
				_ = c.Close()
			}
			return nil, err
		}
	}

	if o.logger != nil {
		o.logger.Debug("backend ready", "adapter", o.adapter, "uri", uri)
	}
	return backend, nil
}
