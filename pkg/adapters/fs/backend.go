// Package fs implements core.Backend on the local filesystem: one file per
// record, named after the record ID, in JSON, YAML, or Markdown-with-frontmatter.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/docmap/pkg/core"
)

// DefaultSystemDir is skipped when listing and watching.
const DefaultSystemDir = ".docmap"

// DefaultFormat is the extension used for new records.
const DefaultFormat = ".json"

// Config holds the configuration for the filesystem backend.
type Config struct {
	Path         string
	Format       string // extension for new records, e.g. ".json", ".yaml", ".md"
	SystemDir    string
	MustExist    bool
	ReadOnly     bool
	Strict       bool
	Logger       *slog.Logger
	ErrorHandler func(error) // receives watcher failures
}

// Backend stores records as files under Config.Path.
type Backend struct {
	Path        string
	config      Config
	serializers map[string]Serializer

	mu            sync.RWMutex
	watcherActive bool
	lastSave      *time.Time
	saves         int
}

// NewBackend creates a filesystem backend. No I/O happens until Initialize or
// the first operation.
func NewBackend(config Config) *Backend {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.Format == "" {
		config.Format = DefaultFormat
	}
	if !strings.HasPrefix(config.Format, ".") {
		config.Format = "." + config.Format
	}
	return &Backend{
		Path:        config.Path,
		config:      config,
		serializers: DefaultSerializers(config.Strict),
	}
}

// RegisterSerializer adds or replaces the serializer for ext.
func (b *Backend) RegisterSerializer(ext string, s Serializer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.serializers[ext] = s
}

// Initialize creates the backend directory, or verifies it exists when
// MustExist is set.
func (b *Backend) Initialize(ctx context.Context) error {
	if _, ok := b.serializer(b.config.Format); !ok {
		return fmt.Errorf("unsupported format: %s", b.config.Format)
	}

	if b.config.MustExist || b.config.ReadOnly {
		info, err := os.Stat(b.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("backend path does not exist: %s", b.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("backend path is not a directory: %s", b.Path)
		}
		return nil
	}

	if err := os.MkdirAll(b.Path, 0755); err != nil {
		return fmt.Errorf("failed to create backend directory: %w", err)
	}
	return nil
}

// Save writes rec atomically and returns the record parsed back from disk.
//
// Workflow:
//  1. Validate the ID (must be a local, relative path).
//  2. Serialize the fields with the serializer of the configured format.
//  3. Write to a temp file and rename it into place.
//  4. Re-read the file so the result reflects what was persisted.
func (b *Backend) Save(ctx context.Context, rec core.Record) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, core.Persistence("fs save", rec.ID, err)
	}
	if b.config.ReadOnly {
		return core.Record{}, core.Persistence("fs save", rec.ID, core.ErrReadOnly)
	}
	if err := validateID(rec.ID); err != nil {
		return core.Record{}, core.Persistence("fs save", rec.ID, err)
	}

	// A record saved before under another extension keeps that file.
	filename, ext := b.locate(rec.ID)
	if filename == "" {
		ext = b.config.Format
		filename = filepath.Join(b.Path, filepath.FromSlash(rec.ID)+ext)
	}

	s, ok := b.serializer(ext)
	if !ok {
		return core.Record{}, core.Persistence("fs save", rec.ID, fmt.Errorf("no serializer for %s", ext))
	}

	data, err := s.Serialize(rec.Fields)
	if err != nil {
		return core.Record{}, core.Persistence("fs save", rec.ID, fmt.Errorf("failed to serialize record: %w", err))
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return core.Record{}, core.Persistence("fs save", rec.ID, fmt.Errorf("failed to create directories: %w", err))
	}
	if err := writeFileAtomic(filename, data, 0644); err != nil {
		return core.Record{}, core.Persistence("fs save", rec.ID, err)
	}

	b.recordSave()
	if b.config.Logger != nil {
		b.config.Logger.Debug("record saved", "id", rec.ID, "file", filename)
	}

	stored, err := b.read(rec.ID, filename, ext)
	if err != nil {
		return core.Record{}, core.Persistence("fs save", rec.ID, err)
	}
	return stored, nil
}

// Get reads the record stored under id.
func (b *Backend) Get(ctx context.Context, id string) (core.Record, error) {
	if err := validateID(id); err != nil {
		return core.Record{}, err
	}
	filename, ext := b.locate(id)
	if filename == "" {
		return core.Record{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return b.read(id, filename, ext)
}

// List returns every record under the backend path, sorted by ID.
// Unparseable files are skipped.
func (b *Backend) List(ctx context.Context) ([]core.Record, error) {
	return b.Match(ctx, "")
}

// Match returns the records whose ID matches the doublestar pattern
// (e.g. "invitations/**"). An empty pattern matches everything.
func (b *Backend) Match(ctx context.Context, pattern string) ([]core.Record, error) {
	if pattern != "" && !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern: %s", pattern)
	}

	var recs []core.Record
	err := filepath.WalkDir(b.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != b.Path && b.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		id, ext, ok := b.resolveID(path)
		if !ok {
			return nil
		}
		if pattern != "" {
			if match, _ := doublestar.Match(pattern, id); !match {
				return nil
			}
		}

		rec, err := b.read(id, path, ext)
		if err != nil {
			if b.config.Logger != nil {
				b.config.Logger.Debug("skipping unparseable record", "path", path, "error", err)
			}
			return nil
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(recs, func(i, j int) bool {
		return recs[i].ID < recs[j].ID
	})
	return recs, nil
}

func (b *Backend) read(id, filename, ext string) (core.Record, error) {
	s, ok := b.serializer(ext)
	if !ok {
		return core.Record{}, fmt.Errorf("no serializer for %s", ext)
	}

	f, err := os.Open(filename)
	if err != nil {
		return core.Record{}, err
	}
	defer f.Close()

	fields, err := s.Parse(f)
	if err != nil {
		return core.Record{}, fmt.Errorf("failed to parse record %s: %w", id, err)
	}
	return core.Record{ID: id, Fields: fields}, nil
}

// locate finds the existing file for id, preferring the configured format.
func (b *Backend) locate(id string) (filename, ext string) {
	base := filepath.Join(b.Path, filepath.FromSlash(id))
	for _, e := range b.extensions() {
		candidate := base + e
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, e
		}
	}
	return "", ""
}

// resolveID maps an absolute file path back to a record ID.
func (b *Backend) resolveID(path string) (id, ext string, ok bool) {
	if isTempFile(path) {
		return "", "", false
	}
	ext = filepath.Ext(path)
	if _, known := b.serializer(ext); !known {
		return "", "", false
	}
	rel, err := filepath.Rel(b.Path, path)
	if err != nil {
		return "", "", false
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, ext), ext, true
}

func (b *Backend) skipDir(name string) bool {
	return name == ".git" || name == b.config.SystemDir
}

func (b *Backend) serializer(ext string) (Serializer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.serializers[ext]
	return s, ok
}

// extensions returns the configured format first, then the rest sorted.
func (b *Backend) extensions() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	exts := []string{b.config.Format}
	rest := make([]string, 0, len(b.serializers))
	for e := range b.serializers {
		if e != b.config.Format {
			rest = append(rest, e)
		}
	}
	sort.Strings(rest)
	return append(exts, rest...)
}

func (b *Backend) recordSave() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := time.Now()
	b.lastSave = &now
	b.saves++
}

func validateID(id string) error {
	if id == "" {
		return core.ErrMissingID
	}
	if !filepath.IsLocal(filepath.FromSlash(id)) {
		return errors.New("record ID must be a relative path inside the backend")
	}
	return nil
}

var (
	_ core.Backend     = (*Backend)(nil)
	_ core.Getter      = (*Backend)(nil)
	_ core.Lister      = (*Backend)(nil)
	_ core.Initializer = (*Backend)(nil)
	_ core.Watchable   = (*Backend)(nil)
)
