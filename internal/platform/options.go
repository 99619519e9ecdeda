package platform

import (
	"log/slog"

	"github.com/aretw0/docmap/pkg/core"
)

// options holds the internal configuration for opening a store.
type options struct {
	backend      core.Backend
	logger       *slog.Logger
	adapter      string
	format       string
	systemDir    string
	keyPrefix    string
	password     string
	redisDB      int
	mustExist    bool
	readOnly     bool
	strict       bool
	createOnly   bool
	errorHandler func(error)
}

// Option defines a functional option for opening a store.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter: AdapterFS,
	}
}

// WithBackend injects a ready backend (e.g. a mock). Adapter selection and
// initialization are skipped.
func WithBackend(b core.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger sets the logger for the store, its backend, and its repositories.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithAdapter selects the backend by name: "fs" (default), "memory", "sqlite", "redis".
func WithAdapter(name string) Option {
	return func(o *options) {
		o.adapter = name
	}
}

// WithFormat sets the file format of the fs adapter (".json", ".yaml", ".md").
func WithFormat(ext string) Option {
	return func(o *options) {
		o.format = ext
	}
}

// WithSystemDir sets the hidden directory the fs adapter skips (default ".docmap").
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithMustExist requires the fs directory to exist already.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithReadOnly rejects every Save with core.ErrReadOnly.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithStrict decodes numbers as json.Number in the fs adapter.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithCreateOnly makes Save fail with core.ErrConflict when the ID exists
// (memory, sqlite, and redis adapters).
func WithCreateOnly(enabled bool) Option {
	return func(o *options) {
		o.createOnly = enabled
	}
}

// WithKeyPrefix sets the Redis key prefix (default "docmap:").
func WithKeyPrefix(prefix string) Option {
	return func(o *options) {
		o.keyPrefix = prefix
	}
}

// WithRedisAuth sets the Redis password and database number.
func WithRedisAuth(password string, db int) Option {
	return func(o *options) {
		o.password = password
		o.redisDB = db
	}
}

// WithWatcherErrorHandler receives runtime failures of the fs watcher.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
